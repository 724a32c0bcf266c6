package scout

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ItemKey derives the deduplication key for an item. Sources with a
// stable upstream id get "<prefix>_<id>"; sources without one get a
// fixed-length hash of the canonical URL. The result is deterministic
// across runs, which is the dedup contract.
func ItemKey(keyPrefix, externalID, rawURL string) string {
	if externalID != "" {
		return keyPrefix + "_" + externalID
	}

	canonical := canonicalURL(rawURL)
	sum := sha256.Sum256([]byte(norm.NFC.String(canonical)))
	return hex.EncodeToString(sum[:])[:16]
}

// canonicalURL strips the parts of a URL that vary between fetches of
// the same resource: query string, fragment, trailing slash, host case.
func canonicalURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}
