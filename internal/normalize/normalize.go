// Package normalize turns raw listings into their canonical persisted
// form: HTML-to-text cleaning, the dedup hash that identifies a posting
// across sources and runs, the stable id derived from it, and country
// extraction from free text.
package normalize

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	reStyleBlock  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reScriptBlock = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reBlockClose  = regexp.MustCompile(`(?i)</p>|</div>|</li>|</h[1-6]>|<br\s*/?>`)
	reTag         = regexp.MustCompile(`<[^>]+>`)
	reEntity      = regexp.MustCompile(`&#?[a-zA-Z0-9]+;`)
	reNewlines    = regexp.MustCompile(`\n{3,}`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// CleanHTMLToText strips markup from a job description and returns plain
// text. Empty input stays empty, so "no description" survives the round
// trip distinct from an empty description.
func CleanHTMLToText(html string) string {
	if html == "" {
		return ""
	}

	text := reStyleBlock.ReplaceAllString(html, "")
	text = reScriptBlock.ReplaceAllString(text, "")
	// Block-level closers become line breaks before tags are dropped,
	// otherwise paragraphs run together.
	text = reBlockClose.ReplaceAllString(text, "\n")
	text = reTag.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	text = reEntity.ReplaceAllString(text, "")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// DedupHash computes the identity key for a posting: sha256 hex of
// lowercased company|title|url. Description and posting date are excluded
// so the same posting re-scraped with different copy still collapses to
// one entry.
func DedupHash(company, title, canonicalURL string) string {
	key := strings.TrimSpace(strings.ToLower(company)) + "|" +
		strings.TrimSpace(strings.ToLower(title)) + "|" +
		strings.TrimSpace(canonicalURL)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// StableUUID derives a deterministic UUID from a seed: the md5 of the
// seed laid out as a v4 UUID, with the version nibble forced to 4 and the
// variant bits forced to 10xx. Same seed, same id, forever.
func StableUUID(seed string) string {
	sum := md5.Sum([]byte(seed))
	sum[6] = (sum[6] & 0x0f) | 0x40
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.UUID(sum).String()
}

// countryNames maps lowercase country names to ISO-2 codes.
var countryNames = map[string]string{
	"united states":  "US",
	"usa":            "US",
	"canada":         "CA",
	"united kingdom": "GB",
	"ireland":        "IE",
	"germany":        "DE",
	"france":         "FR",
	"spain":          "ES",
	"portugal":       "PT",
	"italy":          "IT",
	"netherlands":    "NL",
	"belgium":        "BE",
	"austria":        "AT",
	"switzerland":    "CH",
	"poland":         "PL",
	"czech republic": "CZ",
	"czechia":        "CZ",
	"romania":        "RO",
	"bulgaria":       "BG",
	"hungary":        "HU",
	"greece":         "GR",
	"sweden":         "SE",
	"norway":         "NO",
	"denmark":        "DK",
	"finland":        "FI",
	"estonia":        "EE",
	"latvia":         "LV",
	"lithuania":      "LT",
	"ukraine":        "UA",
	"turkey":         "TR",
	"israel":         "IL",
	"india":          "IN",
	"australia":      "AU",
	"brazil":         "BR",
	"mexico":         "MX",
	"japan":          "JP",
}

var reISOToken = regexp.MustCompile(`\b[A-Z]{2}\b`)

// ParseCountries extracts candidate country codes from free text: named
// countries via the dictionary, plus any standalone two-uppercase-letter
// token in the original-case text. The token heuristic over-matches
// acronyms on purpose; callers treat the result as a signal, not ground
// truth.
func ParseCountries(text string) []string {
	if text == "" {
		return nil
	}

	found := make(map[string]bool)

	lower := strings.ToLower(text)
	for name, code := range countryNames {
		if strings.Contains(lower, name) {
			found[code] = true
		}
	}

	for _, token := range reISOToken.FindAllString(text, -1) {
		found[token] = true
	}

	if len(found) == 0 {
		return nil
	}

	codes := make([]string, 0, len(found))
	for code := range found {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
