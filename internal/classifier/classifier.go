// Package classifier assigns a spend category and a payment mode to raw
// bank-message text. Both tables are scanned in a fixed order and the first
// label with any keyword contained in the text wins, so the order of the
// rule slices decides ties between labels.
package classifier

import (
	"strings"

	"smsledger/internal/models"
)

// CategoryRule maps one category to the keywords that select it.
type CategoryRule struct {
	Category models.Category
	Keywords []string
}

// PaymentModeRule maps one payment mode to the keywords that select it.
type PaymentModeRule struct {
	Mode     models.PaymentMode
	Keywords []string
}

// categoryRules is the canonical category scan order.
var categoryRules = []CategoryRule{
	{models.CategoryFood, []string{
		"swiggy", "zomato", "dominos", "pizza", "mcdonalds", "kfc", "burger",
		"restaurant", "cafe", "food", "eat", "dining", "kitchen", "biryani",
		"starbucks", "chai", "coffee", "bakery", "hotel", "dhaba", "canteen",
	}},
	{models.CategoryTransport, []string{
		"uber", "ola", "rapido", "metro", "irctc", "railway", "petrol", "diesel",
		"fuel", "parking", "toll", "fastag", "cab", "auto", "bus", "flight",
		"makemytrip", "goibibo", "redbus", "indigo", "spicejet", "cleartrip",
	}},
	{models.CategoryShopping, []string{
		"amazon", "flipkart", "myntra", "ajio", "nykaa", "meesho", "snapdeal",
		"shoppers", "mall", "store", "retail", "mart", "bazaar", "dmart", "reliance",
		"bigbasket", "grofers", "blinkit", "zepto", "instamart", "jiomart",
	}},
	{models.CategoryEntertainment, []string{
		"netflix", "prime", "hotstar", "spotify", "youtube", "gaana", "jiocinema",
		"pvr", "inox", "bookmyshow", "movie", "cinema", "game", "play", "xbox",
		"playstation", "steam", "discord",
	}},
	{models.CategoryUtilities, []string{
		"electricity", "bescom", "msedcl", "tata power", "adani", "gas", "water",
		"broadband", "jio", "airtel", "vi", "bsnl", "mobile", "recharge", "dth",
		"insurance", "lic", "hdfc life", "icici pru", "rent", "maintenance",
	}},
	{models.CategoryHealth, []string{
		"pharmacy", "pharma", "medical", "medicine", "apollo", "medplus", "1mg",
		"netmeds", "hospital", "clinic", "doctor", "diagnostic", "lab", "health",
		"practo", "pharmeasy", "tata 1mg",
	}},
}

// paymentModeRules is the canonical payment-mode scan order.
var paymentModeRules = []PaymentModeRule{
	{models.PaymentModeUPI, []string{"upi", "gpay", "phonepe", "paytm", "bhim", "@ybl", "@oksbi", "@okaxis", "@okicici"}},
	{models.PaymentModeCreditCard, []string{"credit card", "cc ", "credit"}},
	{models.PaymentModeDebitCard, []string{"debit card", "dc ", "debit", "atm"}},
	{models.PaymentModeCash, []string{"cash", "atm withdrawal"}},
	{models.PaymentModeNetbanking, []string{"neft", "imps", "rtgs", "netbanking"}},
}

// DetectCategory returns the first category in canonical order whose keyword
// list has a case-insensitive substring match in text, or CategoryOther.
func DetectCategory(text string) models.Category {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		if containsAny(lower, rule.Keywords) {
			return rule.Category
		}
	}
	return models.CategoryOther
}

// DetectPaymentMode returns the first payment mode in canonical order whose
// keyword list matches text, or PaymentModeOther.
func DetectPaymentMode(text string) models.PaymentMode {
	lower := strings.ToLower(text)
	for _, rule := range paymentModeRules {
		if containsAny(lower, rule.Keywords) {
			return rule.Mode
		}
	}
	return models.PaymentModeOther
}

// Categories returns the category rules in scan order. The slice is a copy.
func Categories() []CategoryRule {
	out := make([]CategoryRule, len(categoryRules))
	copy(out, categoryRules)
	return out
}

// PaymentModes returns the payment-mode rules in scan order. The slice is a copy.
func PaymentModes() []PaymentModeRule {
	out := make([]PaymentModeRule, len(paymentModeRules))
	copy(out, paymentModeRules)
	return out
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
