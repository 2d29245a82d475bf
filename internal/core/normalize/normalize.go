// Package normalize folds chat text into a canonical form for keyword matching
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKD decomposition
// 3 Remove zero-width and combining marks, then recompose
// 4 Width fold fullwidth to ASCII
// 5 Upper casing
// 6 Collapse whitespace to single spaces and trim
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			norm.NFC,
			width.Fold, // map fullwidth forms to ASCII
			cases.Upper(language.Und),
		)
	},
}

// Upper returns the normalized upper-case form of s following the pipeline described above
func Upper(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = strings.ToUpper(s)
	}

	return strings.Join(strings.Fields(ns), " ")
}

// ContainsFirst returns the first keyword (in the order given) that occurs in the
// normalized form of s. Keywords are expected in upper case
func ContainsFirst(s string, keywords ...string) (string, bool) {
	u := Upper(s)
	for _, k := range keywords {
		if strings.Contains(u, k) {
			return k, true
		}
	}
	return "", false
}
