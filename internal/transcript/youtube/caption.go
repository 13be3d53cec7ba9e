package youtube

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// cleanCaption strips markup from a caption fragment and decodes entities.
// Caption text arrives entity-escaped a second time inside the XML, so the
// tokenizer's own unescaping is followed by one more pass.
func cleanCaption(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	z := xhtml.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			return strings.Join(strings.Fields(html.UnescapeString(sb.String())), " ")
		case xhtml.TextToken:
			sb.Write(z.Text())
		case xhtml.StartTagToken, xhtml.EndTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				sb.WriteByte(' ')
			}
		}
	}
}
