package signals

import (
	"regexp"
	"strings"

	"github.com/theopenlane/eushield/internal/types"
)

// usJurisdictionStates lists US states commonly named in governing-law clauses
var usJurisdictionStates = []string{
	"California", "Delaware", "New York", "Texas", "Florida", "Nevada",
	"Washington", "Oregon", "Virginia", "Georgia", "Illinois", "Massachusetts",
	"Colorado", "Arizona", "North Carolina", "Pennsylvania", "Ohio", "Michigan",
	"New Jersey", "Maryland", "Utah", "Connecticut", "Wyoming",
}

// usIncorporationStates lists US states commonly named as place of incorporation
var usIncorporationStates = []string{
	"Delaware", "California", "Nevada", "Wyoming", "New York", "Texas", "Florida", "Washington",
}

// group joins literal names into a non-capturing alternation
func group(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(n), " ", `\s+`))
	}

	return "(?:" + strings.Join(quoted, "|") + ")"
}

// rx compiles a rule counting every match of expr
func rx(expr string) Rule {
	return Match(regexp.MustCompile(expr))
}

// word compiles a rule counting whole-word matches of expr
func word(expr string) Rule {
	return WholeWord(regexp.MustCompile(expr))
}

// euPositivePatterns returns the signals indicating an EU/EEA based operator
func euPositivePatterns() []Pattern {
	return []Pattern{
		{
			ID:       "eu_jurisdiction",
			Category: types.CategoryEUPositive,
			Label:    "EU Jurisdiction",
			Weight:   15,
			Rules: []Rule{
				countryRule(`(?:governed\s+by|subject\s+to|under)\s+(?:the\s+)?laws?\s+(?:of\s+)?(?:the\s+)?(?:country\s+of\s+)?%s`),
				countryRule(`jurisdiction\s+(?:of\s+)?(?:the\s+)?(?:courts?\s+(?:of|in)\s+)?%s`),
				countryRule(`(?:applicable|governing)\s+law[:\s]+%s`),
			},
			Description: "Legal jurisdiction in an EU/EEA country",
		},
		{
			ID:       "eu_registered",
			Category: types.CategoryEUPositive,
			Label:    "EU Registration",
			Weight:   15,
			Rules: []Rule{
				countryRule(`(?:registered|incorporated|established|organized)\s+(?:in|under\s+the\s+laws\s+of)\s+%s`),
				countryRule(`(?:company|entity|organization|organisation)\s+(?:registered|based|located)\s+in\s+%s`),
			},
			Description: "Company registered in an EU/EEA country",
		},
		{
			ID:       "eu_headquarters",
			Category: types.CategoryEUPositive,
			Label:    "EU Headquarters",
			Weight:   12,
			Rules: []Rule{
				countryRule(`(?:headquartered|based|located|situated|offices?)\s+in\s+%s`),
				countryRule(`(?:head\s*office|principal\s+(?:place|office)|registered\s+(?:office|address))[:\s]+.*?%s`),
			},
			Description: "Headquarters or office in an EU/EEA country",
		},
		{
			ID:       "eu_vat",
			Category: types.CategoryEUPositive,
			Label:    "EU VAT Number",
			Weight:   15,
			Rules: []Rule{
				word(`(?i)(?:VAT|USt-?Id(?:Nr)?|TVA|IVA|BTW|NIP|UID|MOMS|ALV|ΑΦΜ|ÁFA)[:\s]?\s*(?:(?:Nr|No|number|numéro|numero|nummer)?[.:\s]?\s*)?[A-Z]{2}\s?\d{7,12}`),
			},
			Description: "EU VAT identification number",
		},
		{
			ID:       "eu_vat_format",
			Category: types.CategoryEUPositive,
			Label:    "EU VAT Number Format",
			Weight:   10,
			Rules: []Rule{
				rx(`\b(?:AT|BE|BG|HR|CY|CZ|DK|EE|FI|FR|DE|EL|GR|HU|IE|IT|LV|LT|LU|MT|NL|PL|PT|RO|SK|SI|ES|SE)\s?[A-Z]?\d[A-Z0-9]{6,11}\b`),
			},
			Description: "Identifier in the format of an EU VAT number",
		},
		{
			ID:       "eu_registry_de",
			Category: types.CategoryEUPositive,
			Label:    "German Company Registry",
			Weight:   12,
			Rules: []Rule{
				rx(`(?i)\bHandelsregister\b`),
				rx(`(?i)\b(?:HRB|HRA)\s?\d{3,}`),
				rx(`(?i)\bAmtsgericht\b`),
			},
			Description: "German commercial register entry or registry court",
		},
		{
			ID:       "eu_registry_fr",
			Category: types.CategoryEUPositive,
			Label:    "French Company Registry",
			Weight:   12,
			Rules: []Rule{
				rx(`(?i)\bRCS\s+\w+\s+\d{3}`),
				rx(`(?i)\bSIRET\s*[:\s]?\s*\d{14}\b`),
				rx(`(?i)\bSIREN\s*[:\s]?\s*\d{9}\b`),
			},
			Description: "French RCS, SIRET or SIREN registration",
		},
		{
			ID:       "eu_registry_es_it",
			Category: types.CategoryEUPositive,
			Label:    "Spanish or Italian Company Registry",
			Weight:   12,
			Rules: []Rule{
				rx(`(?i)\bRegistro\s+Mercantil\b`),
				rx(`(?i)\b[CN]IF\s*[:\s]?\s*[A-Z]\d{7,8}`),
				rx(`(?i)\bRegistro\s+delle\s+Imprese\b`),
				rx(`(?i)\bP\.?\s*IVA\s*[:\s]?\s*\d{11}\b`),
				rx(`(?i)\bPartita\s+IVA\b`),
			},
			Description: "Spanish or Italian company registry or tax identifier",
		},
		{
			ID:       "eu_registry_other",
			Category: types.CategoryEUPositive,
			Label:    "EU Company Registry",
			Weight:   10,
			Rules: []Rule{
				rx(`(?i)\bKvK\s*[:\s]?\s*\d{8}\b`),
				rx(`(?i)\bKamer\s+van\s+Koophandel\b`),
				word(`(?i)(?:Äriregistri?\s+kood|registry\s+code)\s*[:\s]?\s*\d{7,8}`),
				rx(`(?i)\bcompany\s+(?:registration|reg\.?)\s*(?:number|no\.?|nr\.?|#)?\s*[:\s]?\s*\d{5,}`),
			},
			Description: "EU company registry or registration number",
		},
		{
			ID:       "eu_country_address",
			Category: types.CategoryEUPositive,
			Label:    "EU Country in Address",
			Weight:   8,
			Rules: []Rule{
				countryRule(`\d{4,5}\s+[\p{L}\p{N}_]+[,\s]+%s`),
				countryRule(`(?m)%s\s*$`),
			},
			Description: "EU country mentioned in address context",
		},
		{
			ID:       "eu_country_mention",
			Category: types.CategoryEUPositive,
			Label:    "EU Country Mention",
			Weight:   5,
			Rules: []Rule{
				countryRule(`%s`),
			},
			Description: "EU/EEA country mentioned in page content",
		},
		{
			ID:       "impressum",
			Category: types.CategoryEUPositive,
			Label:    "Impressum",
			Weight:   10,
			Rules: []Rule{
				rx(`(?i)\bImpressum\b`),
				rx(`(?i)\bAngaben\s+gemäß\s+§\s*5\s+(?:TMG|DDG)\b`),
				rx(`(?i)\bTelemediengesetz\b`),
				rx(`(?i)\bMediengesetz\b`),
				rx(`(?i)\bDigitale-Dienste-Gesetz\b`),
			},
			Description: "German/Austrian legal disclosure page (Impressum)",
		},
		{
			ID:       "eu_consumer",
			Category: types.CategoryEUPositive,
			Label:    "EU Consumer Rights",
			Weight:   8,
			Rules: []Rule{
				rx(`(?i)\bEuropean\s+Union\s+consumer`),
				rx(`(?i)\bEU\s+consumer`),
				rx(`(?i)\bconsumer\s+rights?\s+(?:under|in)\s+(?:the\s+)?EU\b`),
				rx(`(?i)\bmandatory\s+provisions\s+of\s+the\s+law\b`),
				rx(`(?i)\bcountry\s+(?:of|in\s+which)\s+(?:you\s+are|your?)\s+residen`),
				rx(`(?i)\bonline\s+dispute\s+resolution\s+platform\b`),
			},
			Description: "EU consumer protection language",
		},
		{
			ID:       "gdpr_mention",
			Category: types.CategoryEUPositive,
			Label:    "GDPR Mention",
			Weight:   6,
			Rules: []Rule{
				rx(`\bGDPR\b`),
				rx(`(?i)\bGeneral\s+Data\s+Protection\s+Regulation\b`),
				rx(`(?i)\bDatenschutz-Grundverordnung\b`),
				rx(`\bRGPD\b`),
				rx(`\bDSGVO\b`),
			},
			Description: "Mentions GDPR (indicates EU regulatory awareness)",
		},
		{
			ID:       "eu_data_authority",
			Category: types.CategoryEUPositive,
			Label:    "EU Data Authority",
			Weight:   8,
			Rules: []Rule{
				rx(`(?i)\bData\s+Protection\s+Officer\b`),
				rx(`(?i)\bDatenschutzbeauftragter?\b`),
				rx(`(?i)\bsupervisory\s+authority\b`),
				rx(`(?i)\bAufsichtsbehörde\b`),
				rx(`(?i)\bData\s+Protection\s+Authority\b`),
				rx(`(?i)\bData\s+Protection\s+Commission\b`),
				rx(`\bCNIL\b`),
				rx(`\bBfDI\b`),
				rx(`\bAEPD\b`),
				rx(`(?i)\bGarante\b`),
			},
			Description: "References EU data protection authority or officer",
		},
	}
}

// redFlagPatterns returns the signals indicating an operator outside the EU/EEA
func redFlagPatterns() []Pattern {
	jurisdictionStates := group(usJurisdictionStates)
	incorporationStates := group(usIncorporationStates)

	return []Pattern{
		{
			ID:       "us_jurisdiction",
			Category: types.CategoryRedFlag,
			Label:    "US Jurisdiction",
			Weight:   -12,
			Rules: []Rule{
				rx(`(?i)\bgoverned\s+by\s+(?:the\s+)?laws?\s+of\s+(?:the\s+)?(?:State\s+of\s+)?` + jurisdictionStates),
				rx(`(?i)\bjurisdiction\s+(?:of\s+)?(?:the\s+)?(?:State\s+of\s+)?` + incorporationStates),
			},
			Description: "US state jurisdiction",
		},
		{
			ID:       "us_federal_jurisdiction",
			Category: types.CategoryRedFlag,
			Label:    "US Federal Jurisdiction",
			Weight:   -10,
			Rules: []Rule{
				rx(`(?i)\bgoverned\s+by\s+(?:the\s+)?(?:federal\s+)?laws?\s+of\s+(?:the\s+)?United\s+States`),
				rx(`(?i)\bFederal\s+Arbitration\s+Act\b`),
				rx(`(?i)\bfederal\s+courts?\s+(?:located\s+)?(?:in|of)\s+(?:the\s+)?(?:State\s+of\s+)?` + jurisdictionStates),
			},
			Description: "US federal law or federal courts",
		},
		{
			ID:       "us_registered",
			Category: types.CategoryRedFlag,
			Label:    "US Registration",
			Weight:   -12,
			Rules: []Rule{
				rx(`(?i)\b(?:registered|incorporated|organized)\s+in\s+(?:the\s+)?(?:State\s+of\s+)?` + incorporationStates),
				rx(`(?i)\bDelaware\s+(?:corporation|LLC|company|entity)\b`),
			},
			Description: "Company registered in a US state",
		},
		{
			ID:       "non_eu_hq",
			Category: types.CategoryRedFlag,
			Label:    "Non-EU Headquarters",
			Weight:   -8,
			Rules: []Rule{
				word(`(?i)(?:headquartered|based|located)\s+in\s+(?:the\s+)?(?:United\s+States|USA|U\.S\.A?\.?|United\s+Kingdom|UK|China|India|Japan|Singapore|Australia|Canada|Brazil|Israel|Switzerland)`),
			},
			Description: "Headquarters in a non-EU country",
		},
		{
			ID:       "binding_arbitration",
			Category: types.CategoryRedFlag,
			Label:    "Binding Arbitration",
			Weight:   -4,
			Rules: []Rule{
				rx(`(?i)\bbinding\s+arbitration\b`),
				rx(`(?i)\bmandatory\s+arbitration\b`),
			},
			Description: "Mandatory binding arbitration (uncommon in EU)",
		},
	}
}
