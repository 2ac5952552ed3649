package domain

import "testing"

func TestParsePledgeAmount_AcceptsDecimalInput(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"25", 2500},
		{"25.50", 2550},
		{" 10 ", 1000},
		{"0", 0},
		{"0.01", 1},
	}
	for _, tc := range cases {
		got, ok := ParsePledgeAmount(tc.raw)
		if !ok {
			t.Fatalf("expected %q to parse", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("expected %q -> %d, got %d", tc.raw, tc.want, got)
		}
	}
}

func TestParsePledgeAmount_RejectsInvalidInput(t *testing.T) {
	for _, raw := range []string{"", "abc", "-5", "12.5x", "NaN", "Inf"} {
		if _, ok := ParsePledgeAmount(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestParsePledgeAmount_RejectsOverflowingInput(t *testing.T) {
	for _, raw := range []string{"1e18", "99999999999999999999", "1000000000001"} {
		minor, ok := ParsePledgeAmount(raw)
		if ok {
			t.Fatalf("expected %q to be rejected, got minor units %d", raw, minor)
		}
	}
	// The cap itself is still representable.
	if minor, ok := ParsePledgeAmount("1000000000000"); !ok || minor != 100000000000000 {
		t.Fatalf("expected the cap to parse, got ok=%v minor=%d", ok, minor)
	}
}

func TestMaskCardNumber_KeepsOnlyLastFour(t *testing.T) {
	if got := MaskCardNumber("4242 4242 4242 4242"); got != "**** 4242" {
		t.Fatalf("expected masked card, got %q", got)
	}
	if got := MaskCardNumber("123"); got != "" {
		t.Fatalf("expected empty mask for short input, got %q", got)
	}
	if got := MaskCardNumber(""); got != "" {
		t.Fatalf("expected empty mask for empty input, got %q", got)
	}
}

func TestFrequencyCatalog_OnlyOneTimeIsEnabled(t *testing.T) {
	catalog := FrequencyCatalog()
	if len(catalog) != 8 {
		t.Fatalf("expected all 8 frequencies advertised, got %d", len(catalog))
	}
	for _, option := range catalog {
		if option.Value == FrequencyOnce {
			if !option.Enabled {
				t.Fatal("expected one-time frequency to be enabled")
			}
			continue
		}
		if option.Enabled {
			t.Fatalf("expected %s to be disabled", option.Value)
		}
	}
}

func TestIsKnownPaymentMethod(t *testing.T) {
	if !IsKnownPaymentMethod(MethodCreditCard) {
		t.Fatal("expected credit_card to be known")
	}
	if IsKnownPaymentMethod(PaymentMethod("bitcoin")) {
		t.Fatal("did not expect bitcoin to be known")
	}
}
