package slug

import (
	"regexp"
	"strings"
)

// MaxLen matches the longest timer key accepted by the engine.
const MaxLen = 64

var nonKeyChars = regexp.MustCompile(`[^a-z0-9._]+`)

// Make turns a display name such as "Deep Work 50/10" into a timer key
// ("deep-work-50-10"). The result is never empty.
func Make(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonKeyChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-._")
	if len(s) > MaxLen {
		s = strings.TrimRight(s[:MaxLen], "-._")
	}
	if s == "" {
		return "timer"
	}
	return s
}
