package platform

import (
	"net/url"

	"github.com/tomnomnom/linkheader"
)

const cursorParam = "page_info"

// NextCursor extracts the page_info cursor of the rel="next" entry of a
// Link header. An empty result means there is no next page.
func NextCursor(header string) string {
	if header == "" {
		return ""
	}
	for _, link := range linkheader.Parse(header).FilterByRel("next") {
		u, err := url.Parse(link.URL)
		if err != nil {
			continue
		}
		if cursor := u.Query().Get(cursorParam); cursor != "" {
			return cursor
		}
	}
	return ""
}
