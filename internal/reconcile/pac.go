package reconcile

import "strings"

// pacSuffixes are the trailing committee designators stripped to recover the
// sponsoring organization's name, longest first so "POLITICAL ACTION
// COMMITTEE" is not left half-eaten by the bare "COMMITTEE" rule.
var pacSuffixes = []string{
	"political action committee",
	"employee pac",
	"federal pac",
	"pac",
	"committee",
	"fund",
}

// ExtractCompanyFromPAC strips trailing committee designators from a PAC
// name, yielding the likely sponsoring organization name. Designators are
// stripped repeatedly, so "ACME INC. EMPLOYEE PAC" reduces to "ACME INC.".
// A name that is nothing but designators comes back empty.
func ExtractCompanyFromPAC(committeeName string) string {
	name := strings.TrimSpace(committeeName)
	for {
		lower := strings.ToLower(name)
		stripped := false
		for _, suffix := range pacSuffixes {
			if strings.HasSuffix(lower, suffix) {
				name = strings.TrimSpace(name[:len(name)-len(suffix)])
				name = strings.TrimRight(name, "-,")
				name = strings.TrimSpace(name)
				stripped = true
				break
			}
		}
		if !stripped {
			return name
		}
	}
}
