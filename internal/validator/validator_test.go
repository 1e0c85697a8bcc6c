package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"smsledger/internal/models"
)

type sample struct {
	Type     models.TransactionType `validate:"omitempty,transaction_type"`
	Category *models.Category       `validate:"omitempty,category"`
	Mode     models.PaymentMode     `validate:"omitempty,payment_mode"`
	Date     string                 `validate:"omitempty,iso_date"`
	Time     string                 `validate:"omitempty,clock_time"`
	Month    string                 `validate:"omitempty,month"`
	Device   string                 `validate:"omitempty,device_id"`
	Last4    *string                `validate:"omitempty,card_last4"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate()
	food := models.CategoryFood
	travel := models.Category("travel")
	good4, bad4 := "1234", "12a4"

	tests := []struct {
		name  string
		in    sample
		valid bool
	}{
		{"empty", sample{}, true},
		{"all valid", sample{
			Type: models.TransactionTypeCredit, Category: &food, Mode: models.PaymentModeUPI,
			Date: "2025-01-05", Time: "23:59", Month: "2025-01", Device: "pixel-7:abc_1", Last4: &good4,
		}, true},
		{"bad type", sample{Type: "income"}, false},
		{"bad category", sample{Category: &travel}, false},
		{"bad mode", sample{Mode: "cheque"}, false},
		{"bad date", sample{Date: "05-01-2025"}, false},
		{"impossible date", sample{Date: "2025-02-30"}, false},
		{"bad time", sample{Time: "24:00"}, false},
		{"bad month", sample{Month: "2025-13"}, false},
		{"bad device", sample{Device: "has space"}, false},
		{"bad last4", sample{Last4: &bad4}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidDeviceID(t *testing.T) {
	assert.True(t, ValidDeviceID("device-123"))
	assert.True(t, ValidDeviceID("a1b2c3d4-0000-4000-8000-000000000000"))
	assert.False(t, ValidDeviceID(""))
	assert.False(t, ValidDeviceID("bad/slash"))
}

func TestRegister(t *testing.T) {
	// Registering on gin's engine must not panic and must be repeatable.
	Register()
	Register()
}
