package parse

import "regexp"

var mentionRe = regexp.MustCompile(`@(\w+)`)

// Mentions extracts the usernames tagged with @ in text, in order of first
// appearance and without duplicates.
func Mentions(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
