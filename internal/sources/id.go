package sources

import "github.com/google/uuid"

var postingNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// PostingID derives a stable identifier from the source name and the
// posting's key on that source, so re-scraping the same job yields the
// same ID.
func PostingID(source, externalKey string) string {
	return uuid.NewSHA1(postingNamespace, []byte(source+"|"+externalKey)).String()
}
