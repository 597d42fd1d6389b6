package inbox

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&amp;", "&",
)

// StripHTML reduces rendered comment markup to plain text for preview
// display: tags removed, common entities decoded, whitespace collapsed.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = entityReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
