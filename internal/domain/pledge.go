/**
 * @description
 * This file defines the pledge-side flow state: the backer's tier/amount
 * selection, billing frequency, and payment method/detail types used by
 * the checkout flow. These are flow records owned by the gateway for the
 * lifetime of a checkout session; the core API never sees raw card data.
 */

package domain

import (
	"math"
	"strconv"
	"strings"
)

// BillingFrequency enumerates how often a pledge recurs. Only "once" is
// accepted today; the remaining values are advertised to the client as
// disabled options pending a recurring-billing capability upstream.
type BillingFrequency string

const (
	FrequencyOnce       BillingFrequency = "once"
	FrequencyHourly     BillingFrequency = "hourly"
	FrequencyDaily      BillingFrequency = "daily"
	FrequencyWeekly     BillingFrequency = "weekly"
	FrequencyMonthly    BillingFrequency = "monthly"
	FrequencyQuarterly  BillingFrequency = "quarterly"
	FrequencyBiannually BillingFrequency = "biannually"
	FrequencyAnnually   BillingFrequency = "annually"
)

// FrequencyOption is one entry of the billing-frequency catalog exposed to
// the client. Disabled entries are rendered but not selectable.
type FrequencyOption struct {
	Value   BillingFrequency `json:"value"`
	Label   string           `json:"label"`
	Enabled bool             `json:"enabled"`
}

// FrequencyCatalog returns the full billing-frequency option set in display
// order. Only "once" is enabled.
func FrequencyCatalog() []FrequencyOption {
	return []FrequencyOption{
		{Value: FrequencyOnce, Label: "Once", Enabled: true},
		{Value: FrequencyHourly, Label: "Hourly", Enabled: false},
		{Value: FrequencyDaily, Label: "Daily", Enabled: false},
		{Value: FrequencyWeekly, Label: "Weekly", Enabled: false},
		{Value: FrequencyMonthly, Label: "Monthly", Enabled: false},
		{Value: FrequencyQuarterly, Label: "Quarterly", Enabled: false},
		{Value: FrequencyBiannually, Label: "Biannually", Enabled: false},
		{Value: FrequencyAnnually, Label: "Annually", Enabled: false},
	}
}

// IsKnownFrequency reports whether f is part of the advertised catalog.
func IsKnownFrequency(f BillingFrequency) bool {
	for _, opt := range FrequencyCatalog() {
		if opt.Value == f {
			return true
		}
	}
	return false
}

// PaymentMethod enumerates the supported checkout payment methods.
type PaymentMethod string

const (
	MethodCreditCard  PaymentMethod = "credit_card"
	MethodPayPal      PaymentMethod = "paypal"
	MethodFlutterwave PaymentMethod = "flutterwave"
	MethodPaystack    PaymentMethod = "paystack"
	MethodStripe      PaymentMethod = "stripe"
)

// PaymentMethods returns the selectable methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{MethodCreditCard, MethodPayPal, MethodFlutterwave, MethodPaystack, MethodStripe}
}

// IsKnownPaymentMethod reports whether m is one of the supported methods.
func IsKnownPaymentMethod(m PaymentMethod) bool {
	for _, known := range PaymentMethods() {
		if known == m {
			return true
		}
	}
	return false
}

// PledgeSelection is the backer's in-progress tier and amount choice.
// AmountRaw preserves the value exactly as typed; AmountMinor is its parsed
// minor-unit equivalent. RewardID is empty when pledging without a tier.
type PledgeSelection struct {
	RewardID    string           `json:"reward_id,omitempty"`
	AmountRaw   string           `json:"amount_raw"`
	AmountMinor int64            `json:"amount_minor"`
	Frequency   BillingFrequency `json:"frequency"`
}

// maxPledgeAmountMajor caps the accepted major-unit value. Anything above
// it would risk overflowing the int64 minor-unit conversion; no real
// pledge comes anywhere near it.
const maxPledgeAmountMajor = 1e12

// ParsePledgeAmount parses a user-typed amount string into minor units.
// Accepts plain non-negative decimals ("25", "12.50"); anything else is
// rejected so the caller can keep the prior value. Values too large to
// represent in minor units are rejected rather than allowed to overflow.
func ParsePledgeAmount(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false
	}
	if value > maxPledgeAmountMajor {
		return 0, false
	}
	return int64(math.Round(value * 100)), true
}

// PaymentDetails carries the contact and billing fields collected in the
// checkout modal. Card number and CVV exist only in-flight: they are
// forwarded to the payment provider and never written to storage.
type PaymentDetails struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	BillingAddress string `json:"billing_address"`
	Country        string `json:"country"`
	CardNumber     string `json:"card_number,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	CVV            string `json:"cvv,omitempty"`
}

// MaskCardNumber reduces a card number to its last four digits for the
// persisted session record ("**** 4242"). Empty input stays empty.
func MaskCardNumber(cardNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cardNumber)
	if len(digits) < 4 {
		return ""
	}
	return "**** " + digits[len(digits)-4:]
}

// FieldErrors maps a field name to a user-facing validation message.
type FieldErrors map[string]string

// Has reports whether any field error is present.
func (e FieldErrors) Has() bool { return len(e) > 0 }
