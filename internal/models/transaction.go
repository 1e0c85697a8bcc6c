package models

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers to match the mobile client contract.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType represents the direction of money movement
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Category is the spend classification of a transaction.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryHealth        Category = "health"
	CategoryOther         Category = "other"
)

// PaymentMode is the settlement channel of a transaction.
type PaymentMode string

const (
	PaymentModeUPI        PaymentMode = "upi"
	PaymentModeCreditCard PaymentMode = "credit_card"
	PaymentModeDebitCard  PaymentMode = "debit_card"
	PaymentModeCash       PaymentMode = "cash"
	PaymentModeNetbanking PaymentMode = "netbanking"
	PaymentModeOther      PaymentMode = "other"
)

// Source records how a transaction entered the system.
type Source string

const (
	SourceSMS    Source = "sms"
	SourceManual Source = "manual"
)

// DateLayout and TimeLayout are the business date and clock formats.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	last4Pattern = regexp.MustCompile(`^\d{4}$`)
)

// Transaction represents one ledger entry owned by a device
type Transaction struct {
	Base
	Type        TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Category    Category        `gorm:"type:varchar(20);not null" json:"category"`
	Description string          `json:"description"`
	Date        string          `gorm:"type:varchar(10);not null" json:"date"`
	Time        string          `gorm:"type:varchar(5);not null" json:"time"`
	PaymentMode PaymentMode     `gorm:"type:varchar(20);not null" json:"paymentMode"`
	CardLast4   *string         `gorm:"type:varchar(4)" json:"cardLast4"`
	Source      Source          `gorm:"type:varchar(10);not null" json:"source"`
	Sender      *string         `json:"sender"`
	RawSMS      string          `gorm:"column:raw_sms" json:"rawSMS,omitempty"`
	DeviceID    string          `gorm:"type:varchar(128);not null;index;uniqueIndex:idx_transactions_device_dedup,priority:1" json:"deviceId"`
	UpdatedAt   *time.Time      `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`

	// DedupKey is the SHA-256 of RawSMS; nil for manual entries.
	DedupKey *string `gorm:"type:varchar(64);uniqueIndex:idx_transactions_device_dedup,priority:2" json:"-"`
}

// ErrInvalidTransaction is returned by Validate when an invariant is violated.
var ErrInvalidTransaction = errors.New("invalid transaction")

// DedupKeyFor returns the hex SHA-256 of a raw message, or nil for an empty one.
func DedupKeyFor(rawSMS string) *string {
	if rawSMS == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(rawSMS))
	key := hex.EncodeToString(sum[:])
	return &key
}

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryShopping, CategoryEntertainment,
		CategoryUtilities, CategoryHealth, CategoryOther:
		return true
	}
	return false
}

// IsValid reports whether m is a known payment mode.
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeUPI, PaymentModeCreditCard, PaymentModeDebitCard, PaymentModeCash,
		PaymentModeNetbanking, PaymentModeOther:
		return true
	}
	return false
}

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	return s == SourceSMS || s == SourceManual
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidClock reports whether s is a 24-hour HH:MM time.
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ValidLast4 reports whether s is exactly four digits.
func ValidLast4(s string) bool {
	return last4Pattern.MatchString(s)
}

// Validate checks the stored-record invariants.
func (t *Transaction) Validate() error {
	switch {
	case !t.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidTransaction)
	case !t.Type.IsValid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	case !t.Category.IsValid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTransaction, t.Category)
	case !t.PaymentMode.IsValid():
		return fmt.Errorf("%w: unknown payment mode %q", ErrInvalidTransaction, t.PaymentMode)
	case !t.Source.IsValid():
		return fmt.Errorf("%w: unknown source %q", ErrInvalidTransaction, t.Source)
	case !ValidDate(t.Date):
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidTransaction, t.Date)
	case !ValidClock(t.Time):
		return fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidTransaction, t.Time)
	case t.CardLast4 != nil && !ValidLast4(*t.CardLast4):
		return fmt.Errorf("%w: cardLast4 %q is not four digits", ErrInvalidTransaction, *t.CardLast4)
	}
	return nil
}

// TransactionPatch carries the mutable fields of a partial update.
// A nil field is left unchanged. Identity and ownership fields are absent
// on purpose so an update can never move a record to another device.
type TransactionPatch struct {
	Type        *TransactionType `json:"type,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *Category        `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Time        *string          `json:"time,omitempty"`
	PaymentMode *PaymentMode     `json:"paymentMode,omitempty"`
	CardLast4   *string          `json:"cardLast4,omitempty"`
	Sender      *string          `json:"sender,omitempty"`
}

// Apply merges the patch into t without touching identity fields. Amounts
// are rounded to two decimal places.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = p.Amount.Round(2)
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Time != nil {
		t.Time = *p.Time
	}
	if p.PaymentMode != nil {
		t.PaymentMode = *p.PaymentMode
	}
	if p.CardLast4 != nil {
		v := *p.CardLast4
		t.CardLast4 = &v
	}
	if p.Sender != nil {
		v := *p.Sender
		t.Sender = &v
	}
}

// Clone returns a deep copy of t so callers cannot alias stored state.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.CardLast4 != nil {
		v := *t.CardLast4
		c.CardLast4 = &v
	}
	if t.Sender != nil {
		v := *t.Sender
		c.Sender = &v
	}
	if t.UpdatedAt != nil {
		v := *t.UpdatedAt
		c.UpdatedAt = &v
	}
	if t.DedupKey != nil {
		v := *t.DedupKey
		c.DedupKey = &v
	}
	return &c
}
