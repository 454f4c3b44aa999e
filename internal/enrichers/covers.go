package enrichers

import (
	"fmt"
	"regexp"
	"strings"
)

const openLibraryCoversURL = "https://covers.openlibrary.org"

// googleImageSizes lists Google Books imageLinks keys, largest first.
var googleImageSizes = []string{"extraLarge", "large", "medium", "small", "thumbnail", "smallThumbnail"}

// bestGoogleImage picks the largest available image link and upgrades it.
func bestGoogleImage(links map[string]string) string {
	for _, size := range googleImageSizes {
		if u := strings.TrimSpace(links[size]); u != "" {
			return upgradeGoogleCover(u)
		}
	}
	return ""
}

// upgradeGoogleCover forces https, asks for the full-size zoom level and
// drops the page-curl decoration.
func upgradeGoogleCover(u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") {
		u = "https://" + strings.TrimPrefix(u, "http://")
	}
	u = strings.Replace(u, "zoom=1", "zoom=0", 1)
	u = strings.ReplaceAll(u, "&edge=curl", "")
	return u
}

var olThumbSize = regexp.MustCompile(`-[SM]\.jpg$`)

// openLibraryCoverByID builds the large cover URL for an Open Library cover id.
func openLibraryCoverByID(id int) string {
	if id <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/b/id/%d-L.jpg", openLibraryCoversURL, id)
}

// upgradeOpenLibraryCover turns small and medium thumbnails into the large variant.
func upgradeOpenLibraryCover(u string) string {
	return olThumbSize.ReplaceAllString(u, "-L.jpg")
}

// bestOpenLibraryCover prefers an explicit cover id, then the thumbnail URL.
func bestOpenLibraryCover(coverIDs []int, thumbnail string) string {
	for _, id := range coverIDs {
		if u := openLibraryCoverByID(id); u != "" {
			return u
		}
	}
	return upgradeOpenLibraryCover(strings.TrimSpace(thumbnail))
}
