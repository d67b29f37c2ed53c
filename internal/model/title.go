package model

import "strings"

const (
	// UntitledTitle is used when the body yields no title.
	UntitledTitle = "Untitled"

	titleMaxRunes = 20
)

// DeriveTitle computes a note title from its body: the first line when the
// body has a line break after its first character, otherwise the first 20
// characters; trimmed, falling back to UntitledTitle when empty.
func DeriveTitle(body string) string {
	var title string
	if i := strings.IndexByte(body, '\n'); i > 0 {
		title = body[:i]
	} else {
		runes := []rune(body)
		if len(runes) > titleMaxRunes {
			runes = runes[:titleMaxRunes]
		}
		title = string(runes)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return UntitledTitle
	}
	return title
}
