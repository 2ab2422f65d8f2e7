// Package dataset loads the tabular datasets charts are bound to.
package dataset

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// extractSuffixPattern matches the "_<32 hex>_data" suffix left on extract table names.
var extractSuffixPattern = regexp.MustCompile(`^(.*?)_[0-9A-Fa-f]{32}_data$`)

// CleanDatasetName strips the extract hash suffix from a file-derived name.
// "Orders_3759F66AE19340B5A44DC7B40426AAA0_data" becomes "Orders".
func CleanDatasetName(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := extractSuffixPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// NameFromPath returns the raw dataset name of a file: its base name without extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

// NormalizeName folds a name for loose comparison: diacritics removed,
// lowercased, everything but ASCII letters and digits dropped.
func NormalizeName(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SameName reports whether two names are equal after NormalizeName.
// Names normalizing to "" never match.
func SameName(a, b string) bool {
	na := NormalizeName(a)
	return na != "" && na == NormalizeName(b)
}
