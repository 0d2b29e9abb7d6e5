package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestLeague(t *testing.T, m *Memory, name, slug string) League {
	t.Helper()
	l, err := m.CreateLeague(context.Background(), League{
		Name:       name,
		Slug:       slug,
		Platforms:  []string{"psn"},
		Visibility: VisibilityPublic,
	})
	if err != nil {
		t.Fatalf("CreateLeague(%q): %v", slug, err)
	}
	return l
}

func TestMemoryLeagueCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created := newTestLeague(t, m, "Apex Masters", "apex-masters")
	if created.ID == uuid.Nil {
		t.Fatal("expected generated ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, err := m.GetLeague(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetLeague: %v", err)
	}
	if got.Name != "Apex Masters" {
		t.Errorf("Name = %q, want %q", got.Name, "Apex Masters")
	}

	bySlug, err := m.GetLeagueBySlug(ctx, "apex-masters")
	if err != nil {
		t.Fatalf("GetLeagueBySlug: %v", err)
	}
	if bySlug.ID != created.ID {
		t.Errorf("GetLeagueBySlug returned wrong league")
	}

	got.Name = "Apex Masters GT"
	updated, err := m.UpdateLeague(ctx, got)
	if err != nil {
		t.Fatalf("UpdateLeague: %v", err)
	}
	if updated.Name != "Apex Masters GT" {
		t.Errorf("updated Name = %q", updated.Name)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("UpdateLeague should preserve CreatedAt")
	}

	if err := m.DeleteLeague(ctx, created.ID); err != nil {
		t.Fatalf("DeleteLeague: %v", err)
	}
	if _, err := m.GetLeague(ctx, created.ID); !errors.Is(err, ErrLeagueNotFound) {
		t.Errorf("after delete, GetLeague err = %v, want ErrLeagueNotFound", err)
	}
}

func TestMemoryLeagueSlugConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	newTestLeague(t, m, "First", "shared-slug")

	_, err := m.CreateLeague(ctx, League{Name: "Second", Slug: "shared-slug"})
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("CreateLeague duplicate slug err = %v, want ErrSlugTaken", err)
	}

	other := newTestLeague(t, m, "Other", "other-slug")
	other.Slug = "shared-slug"
	if _, err := m.UpdateLeague(ctx, other); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("UpdateLeague onto taken slug err = %v, want ErrSlugTaken", err)
	}

	// Updating a league without changing its slug must not conflict with itself.
	first, _ := m.GetLeagueBySlug(ctx, "shared-slug")
	first.Name = "First Renamed"
	if _, err := m.UpdateLeague(ctx, first); err != nil {
		t.Fatalf("UpdateLeague keeping own slug: %v", err)
	}
}

func TestMemoryDeleteLeagueCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	l := newTestLeague(t, m, "Cascade", "cascade")
	comp, err := m.CreateCompetition(ctx, Competition{LeagueID: l.ID, Name: "GT3 Cup"})
	if err != nil {
		t.Fatalf("CreateCompetition: %v", err)
	}
	season, err := m.CreateSeason(ctx, Season{CompetitionID: comp.ID, Name: "Season 1", Ordinal: 1})
	if err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}
	driver, err := m.CreateDriver(ctx, Driver{LeagueID: l.ID, Nickname: "Max"})
	if err != nil {
		t.Fatalf("CreateDriver: %v", err)
	}

	if err := m.DeleteLeague(ctx, l.ID); err != nil {
		t.Fatalf("DeleteLeague: %v", err)
	}

	if _, err := m.GetCompetition(ctx, comp.ID); !errors.Is(err, ErrCompetitionNotFound) {
		t.Errorf("competition survived league delete: %v", err)
	}
	if _, err := m.GetSeason(ctx, season.ID); !errors.Is(err, ErrSeasonNotFound) {
		t.Errorf("season survived league delete: %v", err)
	}
	if _, err := m.GetDriver(ctx, driver.ID); !errors.Is(err, ErrDriverNotFound) {
		t.Errorf("driver survived league delete: %v", err)
	}
}

func TestMemoryCreateDriverRequiresLeague(t *testing.T) {
	m := NewMemory()
	_, err := m.CreateDriver(context.Background(), Driver{LeagueID: uuid.New(), Nickname: "Ghost"})
	if !errors.Is(err, ErrLeagueNotFound) {
		t.Fatalf("err = %v, want ErrLeagueNotFound", err)
	}
}

func TestMemoryDriverCopySemantics(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	l := newTestLeague(t, m, "Copies", "copies")

	num := 27
	created, err := m.CreateDriver(ctx, Driver{
		LeagueID:     l.ID,
		Nickname:     "Max",
		DriverNumber: &num,
		PlatformIDs:  map[string]string{"psn": "max_psn"},
	})
	if err != nil {
		t.Fatalf("CreateDriver: %v", err)
	}

	// Mutating the returned copy must not leak into the store.
	created.PlatformIDs["psn"] = "tampered"
	*created.DriverNumber = 99

	got, err := m.GetDriver(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetDriver: %v", err)
	}
	if got.PlatformIDs["psn"] != "max_psn" {
		t.Errorf("PlatformIDs leaked mutation: %q", got.PlatformIDs["psn"])
	}
	if *got.DriverNumber != 27 {
		t.Errorf("DriverNumber leaked mutation: %d", *got.DriverNumber)
	}
}

func TestMemoryListDriversPagination(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	l := newTestLeague(t, m, "Paging", "paging")

	for i := 0; i < 7; i++ {
		_, err := m.CreateDriver(ctx, Driver{
			LeagueID: l.ID,
			Nickname: fmt.Sprintf("driver-%02d", i),
		})
		if err != nil {
			t.Fatalf("CreateDriver %d: %v", i, err)
		}
	}

	page, err := m.ListDrivers(ctx, l.ID, ListParams{Page: 2, PerPage: 3})
	if err != nil {
		t.Fatalf("ListDrivers: %v", err)
	}
	if page.Total != 7 {
		t.Errorf("Total = %d, want 7", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}
	if len(page.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(page.Items))
	}
	if page.Items[0].Nickname != "driver-03" {
		t.Errorf("page 2 starts at %q, want driver-03", page.Items[0].Nickname)
	}

	// A page past the end is empty but keeps totals.
	far, err := m.ListDrivers(ctx, l.ID, ListParams{Page: 10, PerPage: 3})
	if err != nil {
		t.Fatalf("ListDrivers far page: %v", err)
	}
	if len(far.Items) != 0 {
		t.Errorf("far page has %d items, want 0", len(far.Items))
	}
	if far.Total != 7 {
		t.Errorf("far page Total = %d, want 7", far.Total)
	}
}

func TestMemoryListDriversSearchAndSort(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	l := newTestLeague(t, m, "Sorting", "sorting")

	names := []string{"Zara", "alex", "Mika"}
	for _, n := range names {
		if _, err := m.CreateDriver(ctx, Driver{LeagueID: l.ID, Nickname: n, DiscordID: n + "#0001"}); err != nil {
			t.Fatalf("CreateDriver %q: %v", n, err)
		}
	}

	page, err := m.ListDrivers(ctx, l.ID, ListParams{})
	if err != nil {
		t.Fatalf("ListDrivers: %v", err)
	}
	got := make([]string, 0, len(page.Items))
	for _, d := range page.Items {
		got = append(got, d.Nickname)
	}
	want := []string{"alex", "Mika", "Zara"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("default sort = %v, want %v", got, want)
		}
	}

	desc, err := m.ListDrivers(ctx, l.ID, ListParams{Sort: "nickname", Order: "desc"})
	if err != nil {
		t.Fatalf("ListDrivers desc: %v", err)
	}
	if desc.Items[0].Nickname != "Zara" {
		t.Errorf("desc sort first = %q, want Zara", desc.Items[0].Nickname)
	}

	found, err := m.ListDrivers(ctx, l.ID, ListParams{Search: "mik"})
	if err != nil {
		t.Fatalf("ListDrivers search: %v", err)
	}
	if found.Total != 1 || found.Items[0].Nickname != "Mika" {
		t.Errorf("search %q matched %d items", "mik", found.Total)
	}
}

func TestMemoryDeleteLeagueDrivers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	l := newTestLeague(t, m, "Reset", "reset")
	other := newTestLeague(t, m, "Other", "other")

	for i := 0; i < 3; i++ {
		if _, err := m.CreateDriver(ctx, Driver{LeagueID: l.ID, Nickname: fmt.Sprintf("d%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.CreateDriver(ctx, Driver{LeagueID: other.ID, Nickname: "keep"}); err != nil {
		t.Fatal(err)
	}

	n, err := m.DeleteLeagueDrivers(ctx, l.ID)
	if err != nil {
		t.Fatalf("DeleteLeagueDrivers: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d drivers, want 3", n)
	}

	remaining, err := m.DriversByLeague(ctx, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 {
		t.Errorf("other league has %d drivers, want 1", len(remaining))
	}
}

func TestMemorySiteConfigDefaults(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	cfg, err := m.GetSiteConfig(ctx)
	if err != nil {
		t.Fatalf("GetSiteConfig: %v", err)
	}
	if cfg.SiteName == "" {
		t.Error("default site config should have a site name")
	}

	cfg.SiteName = "My League Hub"
	saved, err := m.UpdateSiteConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("UpdateSiteConfig: %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Error("UpdateSiteConfig should stamp UpdatedAt")
	}

	got, err := m.GetSiteConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.SiteName != "My League Hub" {
		t.Errorf("SiteName = %q after update", got.SiteName)
	}
}

func TestMemoryAuditRetention(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	old := AuditEntry{Action: "import", Actor: "admin", CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := AuditEntry{Action: "import", Actor: "admin", CreatedAt: time.Now()}
	if err := m.InsertAudit(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := m.InsertAudit(ctx, recent); err != nil {
		t.Fatal(err)
	}

	n, err := m.DeleteAuditBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteAuditBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d entries, want 1", n)
	}

	page, err := m.ListAudit(ctx, ListParams{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 {
		t.Errorf("remaining audit entries = %d, want 1", page.Total)
	}
}

func TestListParamsClamp(t *testing.T) {
	tests := []struct {
		name    string
		in      ListParams
		page    int
		perPage int
		order   string
	}{
		{"zero values", ListParams{}, 1, DefaultPerPage, "asc"},
		{"negative page", ListParams{Page: -3, PerPage: 10}, 1, 10, "asc"},
		{"per page capped", ListParams{Page: 2, PerPage: 500}, 2, MaxPerPage, "asc"},
		{"desc preserved", ListParams{Order: "desc"}, 1, DefaultPerPage, "desc"},
		{"junk order", ListParams{Order: "sideways"}, 1, DefaultPerPage, "asc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Clamp()
			if p.Page != tt.page {
				t.Errorf("Page = %d, want %d", p.Page, tt.page)
			}
			if p.PerPage != tt.perPage {
				t.Errorf("PerPage = %d, want %d", p.PerPage, tt.perPage)
			}
			if p.Order != tt.order {
				t.Errorf("Order = %q, want %q", p.Order, tt.order)
			}
		})
	}
}
