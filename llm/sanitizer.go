package llm

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	inlineSpace    = regexp.MustCompile(`[ \t]+`)
)

// SanitizeInput cleans free text supplied by a user before it is embedded
// in a prompt. Control and non-printable characters are removed, spacing is
// normalised and paragraph breaks are kept. A maxLen of zero disables the
// length check.
func SanitizeInput(s string, maxLen int) (string, error) {
	s = strings.TrimSpace(s)
	s = removeControlCharacters(s, true)
	s = removeNonPrintable(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	s = strings.TrimSpace(strings.Join(lines, "\n"))

	if maxLen > 0 && len(s) > maxLen {
		return "", fmt.Errorf("%w (%d characters)", ErrInputTooLong, maxLen)
	}
	return s, nil
}

// removeControlCharacters removes control characters from a string.
// If preserveFormatting is true, newlines (\n), tabs (\t), and carriage returns (\r) are preserved.
func removeControlCharacters(s string, preserveFormatting bool) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			if preserveFormatting && (r == '\n' || r == '\t' || r == '\r') {
				result.WriteRune(r)
			}
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func removeNonPrintable(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
