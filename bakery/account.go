package bakery

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// AccountKey is the identity of an account in the statement.
type AccountKey string

// Normalizer maps a free-text account name to its key.
type Normalizer func(name string) AccountKey

// NormalizeAccount trims, collapses inner whitespace, applies NFC and case
// folding. Names that still differ afterwards are different accounts.
// A Caser is stateful, so one is built per call.
func NormalizeAccount(name string) AccountKey {
	collapsed := strings.Join(strings.Fields(name), " ")
	return AccountKey(cases.Fold().String(norm.NFC.String(collapsed)))
}

// ExactAccount uses the name as is.
func ExactAccount(name string) AccountKey {
	return AccountKey(name)
}

// CleanAccountName trims and collapses whitespace for storage.
func CleanAccountName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// CleanAccountNames cleans every name and drops the ones left blank.
func CleanAccountNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = CleanAccountName(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
