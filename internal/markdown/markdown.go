// Package markdown converts HTML into markdown, which Discord can render.
package markdown

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var converter = md.NewConverter("", true, nil)

func init() {
	removeIMGTags := md.Rule{
		Filter: []string{"img"},
		Replacement: func(_ string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String("")
		},
	}
	// Link texts which are URLs can differ from the actual target.
	sanitizeURLLinkTexts := md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, options *md.Options) *string {
			_, err := url.ParseRequestURI(content)
			if err == nil {
				href := selec.AttrOr("href", "#")
				return md.String("[Link](" + href + ")")
			}
			return nil
		},
	}
	converter.AddRules(removeIMGTags, sanitizeURLLinkTexts)
}

// Convert converts HTML into markdown. Images are removed.
func Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	s, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert HTML to markdown: %w", err)
	}
	return s, nil
}
