package smsparser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// rule is one entry of an ordered first-match-wins cascade. The first
// capture group of re holds the extracted value.
type rule struct {
	name string
	re   *regexp.Regexp
}

// dateRule pairs a date pattern with the parser for its captures.
type dateRule struct {
	name  string
	re    *regexp.Regexp
	parse func(m []string) (time.Time, bool)
}

// amountNumeral is shared by every amount rule: digits with optional
// thousands separators and an optional two-digit fraction.
const amountNumeral = `([0-9,]+(?:\.[0-9]{2})?)`

const currency = `(?:INR|Rs\.?)`

// amountRules are tried in order; bank-specific debit phrasings come first and
// credit phrasings last, so a message that any debit rule can frame keeps
// that result.
var amountRules = []rule{
	{"hdfc_amount_then_verb", regexp.MustCompile(`(?i)` + currency + `\s*` + amountNumeral + `\s*(?:debited|withdrawn|spent|paid)`)},
	{"verb_then_amount", regexp.MustCompile(`(?i)(?:debited|withdrawn|spent|paid)\s*` + currency + `\s*` + amountNumeral)},
	{"icici_masked_acct", regexp.MustCompile(`(?i)Acct\s*\*+\d+\s*debited\s*` + currency + `\s*` + amountNumeral)},
	{"sbi_has_been_debited", regexp.MustCompile(`(?i)` + currency + `\s*` + amountNumeral + `\s*has been debited`)},
	{"axis_debited_from_ac", regexp.MustCompile(`(?i)` + currency + `\s*` + amountNumeral + `\s*debited from a/c`)},
	{"upi_sent_paid", regexp.MustCompile(`(?i)(?:sent|paid)\s*` + currency + `\s*` + amountNumeral)},
	{"upi_sent_transferred", regexp.MustCompile(`(?i)` + currency + `\s*` + amountNumeral + `\s*(?:sent|transferred)`)},
	{"credit_amount_then_verb", regexp.MustCompile(`(?i)` + currency + `\s*` + amountNumeral + `\s*(?:credited|received|deposited)`)},
	{"credit_verb_then_amount", regexp.MustCompile(`(?i)(?:credited|received|deposited)(?:\s+(?:with|by))?\s*` + currency + `\s*` + amountNumeral)},
}

// creditRules decide direction only. They are independent of amountRules:
// a hit flags the message credit whichever rule captured the numeral.
var creditRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)` + currency + `\s*[0-9,]+(?:\.[0-9]{2})?\s*(?:credited|received|deposited)`),
	regexp.MustCompile(`(?i)(?:credited|received|deposited)(?:\s+(?:with|by))?\s*` + currency + `\s*[0-9,]+(?:\.[0-9]{2})?`),
}

var merchantRules = []rule{
	{"at_to_before_marker", regexp.MustCompile(`(?i)(?:at|to|@)\s*([A-Za-z0-9\s&\-.]+?)(?:\s*(?:on|dated|ref|txn|UPI))`)},
	{"info_vpa_upi_label", regexp.MustCompile(`(?i)(?:Info|VPA|UPI):\s*([A-Za-z0-9@.\-]+)`)},
	{"paid_to_before_ref", regexp.MustCompile(`(?i)(?:to|paid to)\s+([A-Za-z0-9\s\-.]+?)(?:\s+(?:Ref|on|UPI))`)},
	{"trf_to", regexp.MustCompile(`(?i)trf to\s+([A-Za-z0-9\s\-.]+)`)},
}

var cardRules = []rule{
	{"labelled_suffix", regexp.MustCompile(`(?i)(?:card|a/c|acct)\s*(?:ending(?:\s+with)?|no\.?|[x*]{2,})\s*(\d{4})`)},
	{"masked_suffix", regexp.MustCompile(`(?:\*|[xX]){4,}(\d{4})`)},
}

var monthAbbrevs = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var dateRules = []dateRule{
	{
		name: "iso",
		re:   regexp.MustCompile(`\b(\d{4})[-/](\d{2})[-/](\d{2})\b`),
		parse: func(m []string) (time.Time, bool) {
			return civilDate(m[1], m[2], m[3])
		},
	},
	{
		// Indian banks write numeric dates day first.
		name: "numeric_day_first",
		re:   regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})\b`),
		parse: func(m []string) (time.Time, bool) {
			return civilDate(m[3], m[2], m[1])
		},
	},
	{
		name: "month_name",
		re:   regexp.MustCompile(`(?i)(\d{1,2})[\s-]*(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[\s,-]*(\d{2,4})`),
		parse: func(m []string) (time.Time, bool) {
			month, ok := monthAbbrevs[strings.ToLower(m[2])]
			if !ok {
				return time.Time{}, false
			}
			return civilDate(m[3], strconv.Itoa(int(month)), m[1])
		},
	},
}

// bankKeywords is the gate vocabulary. Matching is a lower-case substring test.
var bankKeywords = []string{
	"debited", "credited", "transaction", "txn", "upi", "neft", "imps",
	"a/c", "acct", "account", "balance", "inr", "rs.", "rs ", "rupees",
	"bank", "hdfc", "icici", "sbi", "axis", "kotak", "idfc", "yes bank",
}

// civilDate builds a UTC calendar date, rejecting values that time.Date
// would normalize (31 Feb, month 13). Two-digit years are 20xx.
func civilDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	switch len(year) {
	case 2:
		y += 2000
	case 4:
	default:
		return time.Time{}, false
	}
	mo, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// firstCapture runs an ordered cascade and returns the first rule's first group.
func firstCapture(rules []rule, text string) (string, string, bool) {
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(text); m != nil && m[1] != "" {
			return m[1], r.name, true
		}
	}
	return "", "", false
}
