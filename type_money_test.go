package papertrade

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		wantErr  error
	}{
		{"150.25", "USD", nil},
		{"0", "USD", nil},
		{"-10.5", "EUR", nil},
		{"1.50000", "USD", nil}, // trailing zeros are not significant places
		{"1.005", "USD", ErrInvalidMoney},
		{"10", "usd", ErrInvalidCurrency},
		{"10", "US", ErrInvalidCurrency},
		{"10", "XYZ", ErrInvalidCurrency},
		{"10", "", ErrInvalidCurrency},
		{"ten", "USD", ErrInvalidMoney},
	}
	for _, tt := range tests {
		t.Run(tt.amount+" "+tt.currency, func(t *testing.T) {
			m, err := ParseMoney(tt.amount, tt.currency)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseMoney(%q, %q) error = %v, want %v", tt.amount, tt.currency, err, tt.wantErr)
			}
			if err == nil && m.Currency() != tt.currency {
				t.Errorf("ParseMoney(%q, %q).Currency() = %q", tt.amount, tt.currency, m.Currency())
			}
		})
	}
}

func TestMoney_Mul(t *testing.T) {
	tests := []struct {
		m      Money
		factor string
		want   Money
	}{
		{USD("150.25"), "10", USD("1502.50")},
		{USD("0.01"), "0.5", USD("0.01")},   // 0.005 rounds away from zero
		{USD("-0.01"), "0.5", USD("-0.01")}, // -0.005 rounds away from zero
		{USD("100.00"), "0.3333", USD("33.33")},
		{USD("33.33"), "0.1234", USD("4.11")},
		{USD("100.00"), "0", USD("0")},
	}
	for _, tt := range tests {
		if got := tt.m.Mul(D(tt.factor)); !got.Equal(tt.want) {
			t.Errorf("%s.Mul(%s) = %s, want %s", tt.m, tt.factor, got, tt.want)
		}
	}
}

func TestMoney_MulQuantity(t *testing.T) {
	got := USD("10.01").MulQuantity(Q("0.5"))
	if want := USD("5.01"); !got.Equal(want) {
		t.Errorf("MulQuantity() = %s, want %s", got, want)
	}
}

func TestMoney_AddSub(t *testing.T) {
	sum, err := USD("1000.00").Add(USD("0.01"))
	if err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if want := USD("1000.01"); !sum.Equal(want) {
		t.Errorf("Add() = %s, want %s", sum, want)
	}
	diff, err := USD("1.00").Sub(USD("2.50"))
	if err != nil {
		t.Fatalf("Sub() unexpected error: %v", err)
	}
	if want := USD("-1.50"); !diff.Equal(want) {
		t.Errorf("Sub() = %s, want %s", diff, want)
	}

	_, err = USD("1").Add(EUR("1"))
	var mismatch *CurrencyMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Add() across currencies error = %v, want CurrencyMismatchError", err)
	}
	if mismatch.Left != "USD" || mismatch.Right != "EUR" {
		t.Errorf("CurrencyMismatchError = %+v, want USD != EUR", mismatch)
	}
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("errors.Is(%v, ErrCurrencyMismatch) = false", err)
	}
	if _, err := USD("1").Sub(EUR("1")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Sub() across currencies error = %v, want ErrCurrencyMismatch", err)
	}
	if _, err := USD("1").LessThan(EUR("1")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("LessThan() across currencies error = %v, want ErrCurrencyMismatch", err)
	}
}

func TestMoney_Div(t *testing.T) {
	got, err := USD("100.00").Div(D("3"))
	if err != nil {
		t.Fatalf("Div() unexpected error: %v", err)
	}
	if want := USD("33.33"); !got.Equal(want) {
		t.Errorf("Div() = %s, want %s", got, want)
	}
	if _, err := USD("100.00").Div(decimal.Zero); !errors.Is(err, ErrInvalidMoney) {
		t.Errorf("Div(0) error = %v, want ErrInvalidMoney", err)
	}
}

func TestMoney_Equal(t *testing.T) {
	if !USD("1.5").Equal(USD("1.50")) {
		t.Error("USD 1.5 should equal USD 1.50")
	}
	if USD("1").Equal(EUR("1")) {
		t.Error("USD 1 should not equal EUR 1")
	}
}

func TestMoney_String(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{USD("1500"), "$1,500.00"},
		{USD("0.5"), "$0.50"},
		{USD("-25.10"), "-$25.10"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
