// Package reconcile resolves raw organization references from the source
// adapters onto canonical Company identities and persists normalized records
// through the record store.
package reconcile

import (
	"regexp"
	"strings"
)

// corporateSuffixes lists the legal entity suffixes stripped during name
// normalization. Only one trailing suffix is removed.
var corporateSuffixes = []string{
	" l.l.c.", " l.l.c", " llc",
	" incorporated", " inc.", " inc",
	" corporation", " corp.", " corp",
	" limited", " ltd.", " ltd",
	" l.p.", " l.p", " lp",
	" l.l.p.", " l.l.p", " llp",
	" p.l.c.", " plc",
	" company", " co.", " co",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

var punctReplacer = strings.NewReplacer(
	",", "",
	".", "",
	"'", "",
	"\"", "",
	"&", " and ",
	"-", " ",
	"/", " ",
)

// NormalizeName standardizes an organization name for matching by:
//  1. Trimming whitespace and lowercasing
//  2. Removing one trailing legal suffix (LLC, Inc, Corp, etc.)
//  3. Stripping punctuation (commas, periods, dashes, ampersands)
//  4. Collapsing runs of spaces
//
// Normalization is idempotent: applying it to its own output is a no-op.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	for _, suffix := range corporateSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = punctReplacer.Replace(name)
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
