package reconcile

import "strings"

// canonicalAliases maps normalized name variants onto the canonical display
// name, so historical and colloquial names collapse onto one company. Keys
// are in NormalizeName form.
var canonicalAliases = map[string]string{
	"apple":              "Apple Inc.",
	"apple computer":     "Apple Inc.",
	"microsoft":          "Microsoft Corporation",
	"msft":               "Microsoft Corporation",
	"alphabet":           "Alphabet Inc.",
	"google":             "Alphabet Inc.",
	"meta":               "Meta Platforms, Inc.",
	"meta platforms":     "Meta Platforms, Inc.",
	"facebook":           "Meta Platforms, Inc.",
	"amazon":             "Amazon.com, Inc.",
	"amazoncom":          "Amazon.com, Inc.",
	"exxon":              "Exxon Mobil Corporation",
	"exxonmobil":         "Exxon Mobil Corporation",
	"exxon mobil":        "Exxon Mobil Corporation",
	"walmart":            "Walmart Inc.",
	"wal mart":           "Walmart Inc.",
	"wal mart stores":    "Walmart Inc.",
	"jpmorgan":           "JPMorgan Chase & Co.",
	"jpmorgan chase":     "JPMorgan Chase & Co.",
	"jp morgan":          "JPMorgan Chase & Co.",
	"berkshire":          "Berkshire Hathaway Inc.",
	"berkshire hathaway": "Berkshire Hathaway Inc.",
}

// CanonicalName returns the display name a raw organization name resolves
// to: the alias table's canonical form when the normalized name is known,
// otherwise the trimmed raw name itself.
func CanonicalName(raw string) string {
	if canonical, ok := canonicalAliases[NormalizeName(raw)]; ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}
