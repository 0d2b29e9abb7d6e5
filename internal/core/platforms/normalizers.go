package platforms

import "strings"

// NormalizeNumericID cleans numeric platform identifiers the way people
// paste them: surrounding whitespace, internal spaces and thousands
// separators are removed ("443 211" and "443,211" both become "443211").
// Anything still non-numeric after cleaning is returned trimmed so
// validation can reject it with the original value visible.
func NormalizeNumericID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', ',', '\u00a0':
			continue
		}
		b.WriteRune(r)
	}
	cleaned := b.String()

	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return s
		}
	}
	return cleaned
}

// NormalizeGamertag trims and collapses runs of internal whitespace to a
// single space. Gamertags legitimately contain single spaces; copy-pasted
// ones often carry doubles.
func NormalizeGamertag(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeHandle trims and strips a leading "@", which players habitually
// include when copying handles out of chat clients.
func NormalizeHandle(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}
