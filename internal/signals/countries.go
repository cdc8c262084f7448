package signals

import (
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// countryNames lists the EU member states and the EEA states, in English and in
// the native spellings commonly found in legal text
var countryNames = []string{
	// EU member states
	"Austria", "Belgium", "Bulgaria", "Croatia", "Cyprus",
	"Czech Republic", "Czechia", "Denmark", "Estonia", "Finland",
	"France", "Germany", "Greece", "Hungary", "Ireland",
	"Italy", "Latvia", "Lithuania", "Luxembourg", "Malta",
	"Netherlands", "Holland", "Poland", "Portugal", "Romania",
	"Slovakia", "Slovenia", "Spain", "Sweden",
	// EEA
	"Norway", "Iceland", "Liechtenstein",
	// native spellings
	"Deutschland", "Österreich", "España", "Italia", "Nederland",
	"België", "Belgique", "Luxemburg", "Éire", "Polska", "România",
	"България", "Eesti", "Suomi", "Sverige", "Danmark", "Ελλάδα",
	"Magyarország", "Česká republika", "Slovensko", "Slovenija",
	"Hrvatska", "Latvija", "Lietuva", "Κύπρος", "Norge", "Ísland",
}

// countryGroup is the regular expression alternation of all country names.
// Longer names come first so a shorter name never shadows a longer one.
var countryGroup = buildCountryGroup(countryNames)

// buildCountryGroup quotes, deduplicates and joins names into a non-capturing group
func buildCountryGroup(names []string) string {
	unique := lo.Uniq(names)

	sort.SliceStable(unique, func(i, j int) bool {
		return len(unique[i]) > len(unique[j])
	})

	quoted := lo.Map(unique, func(name string, _ int) string {
		return strings.ReplaceAll(regexp.QuoteMeta(name), " ", `\s+`)
	})

	return "(?:" + strings.Join(quoted, "|") + ")"
}

// countryRule interpolates the country group into each %s of the template and
// compiles it as a case-insensitive whole-word rule
func countryRule(template string) Rule {
	expr := strings.ReplaceAll(template, "%s", countryGroup)

	return WholeWord(regexp.MustCompile("(?i)" + expr))
}
