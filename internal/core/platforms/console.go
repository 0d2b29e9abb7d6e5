package platforms

import (
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
)

func init() {
	registerPSN()
	registerXbox()
}

func registerPSN() {
	core.Register(core.Platform{
		Key:   "psn",
		Label: "PlayStation Network",
		Headers: []core.HeaderSpec{
			{Field: "psn_id", Label: "PSN ID", Type: core.FieldTypeText},
		},
	})
}

func registerXbox() {
	core.Register(core.Platform{
		Key:   "xbox",
		Label: "Xbox Live",
		Headers: []core.HeaderSpec{
			{Field: "xbox_gamertag", Label: "Xbox Gamertag", Type: core.FieldTypeText},
		},
		Normalizer: func(_, value string) string {
			return NormalizeGamertag(value)
		},
	})
}
