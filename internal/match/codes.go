package match

import (
	"regexp"
	"strings"
)

// codePattern recognizes entity code tokens like "25 BK-069" or "BK-069":
// an optional two-digit year prefix, a 2-4 letter entity prefix and a
// three-digit sequence number.
var codePattern = regexp.MustCompile(`\b(?:\d{2}[ \t]+)?[A-Za-z]{2,4}-\d{3}\b`)

// ExtractCodes returns the entity code tokens found in the text, in order
// of appearance, normalized to upper case with single spacing, without
// duplicates.
func ExtractCodes(text string) []string {
	raw := codePattern.FindAllString(text, -1)
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(raw))
	codes := make([]string, 0, len(raw))
	for _, token := range raw {
		code := NormalizeCode(token)
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// NormalizeCode upper-cases a code token and collapses internal
// whitespace to a single space, matching how the target catalog stores
// codes.
func NormalizeCode(token string) string {
	return strings.Join(strings.Fields(strings.ToUpper(token)), " ")
}
