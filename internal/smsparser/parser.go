// Package smsparser turns Indian bank notification SMS text into
// transaction drafts.
package smsparser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/classifier"
	"smsledger/internal/models"
	"smsledger/internal/uuid"
)

// Reason is a typed extraction failure. Failures are values, not errors.
type Reason string

const (
	ReasonInvalidInput   Reason = "InvalidInput"
	ReasonNotBankSMS     Reason = "NotBankSMS"
	ReasonAmountNotFound Reason = "AmountNotFound"
)

// Message returns the human readable text for r.
func (r Reason) Message() string {
	switch r {
	case ReasonInvalidInput:
		return "Invalid SMS text"
	case ReasonNotBankSMS:
		return "Not a bank transaction SMS"
	case ReasonAmountNotFound:
		return "Could not extract amount"
	}
	return string(r)
}

// defaultDescription is used when no merchant can be found.
const defaultDescription = "Transaction"

// Result is the outcome of parsing one message.
type Result struct {
	Success     bool                `json:"success"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Error       Reason              `json:"error,omitempty"`
	Message     string              `json:"message,omitempty"`
}

func failure(r Reason) Result {
	return Result{Error: r, Message: r.Message()}
}

// Parser extracts transactions from SMS text. A Parser holds no mutable
// state and is safe for concurrent use.
type Parser struct {
	now   func() time.Time
	loc   *time.Location
	newID func() string
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock sets the source of the invocation instant.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLocation sets the zone used for the fallback date and the HH:MM time.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithIDGenerator overrides the id assigned to parsed transactions.
func WithIDGenerator(fn func() string) Option {
	return func(p *Parser) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a Parser. Defaults: time.Now, time.Local, UUIDv7 ids.
func New(opts ...Option) *Parser {
	p := &Parser{
		now:   time.Now,
		loc:   time.Local,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Parse runs the default parser.
func Parse(text string, sender *string, timestampMs *int64) Result {
	return defaultParser.Parse(text, sender, timestampMs)
}

// IsBankSMS reports whether text contains any bank notification keyword.
func IsBankSMS(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range bankKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Parse extracts a transaction draft from one message. The draft has no
// device owner; the store assigns one on insert.
func (p *Parser) Parse(text string, sender *string, timestampMs *int64) Result {
	if strings.TrimSpace(text) == "" {
		return failure(ReasonInvalidInput)
	}
	if !IsBankSMS(text) {
		return failure(ReasonNotBankSMS)
	}

	amount, ok := extractAmount(text)
	if !ok {
		return failure(ReasonAmountNotFound)
	}

	now := p.now()
	txnType := models.TransactionTypeDebit
	if isCredit(text) {
		txnType = models.TransactionTypeCredit
	}

	description := defaultDescription
	if merchant, ok := extractMerchant(text); ok {
		description = merchant
	}
	card := extractCardLast4(text)
	if card != nil {
		description = fmt.Sprintf("%s (Card **%s)", description, *card)
	}

	date, ok := extractDate(text)
	if !ok {
		date = now.In(p.loc).Format(models.DateLayout)
	}

	clock := now
	if timestampMs != nil {
		clock = time.UnixMilli(*timestampMs)
	}

	txn := &models.Transaction{
		Type:        txnType,
		Amount:      amount,
		Category:    classifier.DetectCategory(text),
		Description: description,
		Date:        date,
		Time:        clock.In(p.loc).Format(models.TimeLayout),
		PaymentMode: classifier.DetectPaymentMode(text),
		CardLast4:   card,
		Source:      models.SourceSMS,
		Sender:      copyString(sender),
		RawSMS:      text,
	}
	txn.ID = p.newID()
	txn.CreatedAt = now

	return Result{Success: true, Transaction: txn}
}

// extractAmount applies the amount cascade. The first matching rule decides;
// a numeral that does not parse to a positive value fails the message rather
// than falling through to later rules.
func extractAmount(text string) (decimal.Decimal, bool) {
	raw, _, ok := firstCapture(amountRules, text)
	if !ok {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount.Round(2), true
}

func isCredit(text string) bool {
	for _, re := range creditRules {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func extractMerchant(text string) (string, bool) {
	for _, r := range merchantRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if merchant := strings.TrimSpace(m[1]); merchant != "" {
			return merchant, true
		}
	}
	return "", false
}

func extractCardLast4(text string) *string {
	last4, _, ok := firstCapture(cardRules, text)
	if !ok {
		return nil
	}
	return &last4
}

// extractDate returns the first date rule's match as YYYY-MM-DD. Only the
// first matching rule is consulted; an impossible date falls back to the
// caller's default.
func extractDate(text string) (string, bool) {
	for _, r := range dateRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		t, ok := r.parse(m)
		if !ok {
			return "", false
		}
		return t.Format(models.DateLayout), true
	}
	return "", false
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
