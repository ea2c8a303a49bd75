package ean

import (
	"fmt"
	"testing"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

func TestCheckDigit(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"400638133393", 1},
		{"123456789012", 8},
		{"590123412345", 7},
		{"000000000000", 0},
		{"978020137962", 4},
		{"300000000000", 7},
		{"100000000007", 8},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := CheckDigit(tt.input)
			if err != nil {
				t.Fatalf("CheckDigit(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("CheckDigit(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCheckDigitMultipleOfTen(t *testing.T) {
	// Weighted sums of 0 and 20: the check digit is 0, never 10.
	for _, in := range []string{"000000000000", "550000000000"} {
		got, err := CheckDigit(in)
		if err != nil {
			t.Fatalf("CheckDigit(%q) error: %v", in, err)
		}
		if got != 0 {
			t.Errorf("CheckDigit(%q) = %d, want 0", in, got)
		}
	}
}

func TestCheckDigitSweep(t *testing.T) {
	for i := 0; i < 5000; i++ {
		in := fmt.Sprintf("%012d", i*7919)
		got, err := CheckDigit(in)
		if err != nil {
			t.Fatalf("CheckDigit(%q) error: %v", in, err)
		}
		if want := referenceCheckDigit(in); got != want {
			t.Fatalf("CheckDigit(%q) = %d, want %d", in, got, want)
		}
		again, _ := CheckDigit(in)
		if again != got {
			t.Fatalf("CheckDigit(%q) not deterministic", in)
		}
		if full := in + fmt.Sprint(got); len(full) != CodeLength || !Valid(full) {
			t.Fatalf("appending check digit to %q gave invalid code %q", in, full)
		}
	}
}

func TestCheckDigitRejects(t *testing.T) {
	for _, in := range []string{"", "12345678901", "1234567890123", "12345678901a", "１２３４５６７８９０１２"} {
		if _, err := CheckDigit(in); !errors.Is(err, errors.ErrCodeInvalidSymbology) {
			t.Errorf("CheckDigit(%q) error = %v, want %s", in, err, errors.ErrCodeInvalidSymbology)
		}
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"twelve digits", "400638133393", "4006381333931", false},
		{"twelve with separators", "4006381-33393", "4006381333931", false},
		{"thirteen passes through", "4006381333931", "4006381333931", false},
		{"thirteen unverified", "4006381333939", "4006381333939", false},
		{"spaces stripped", " 123 456 789 012 ", "1234567890128", false},
		{"too short", "12345", "", true},
		{"too long", "12345678901234", "", true},
		{"no digits", "EXAMPLE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Complete(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Complete(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidSymbology) {
					t.Errorf("Complete(%q) error code = %s, want %s", tt.input, errors.GetCode(err), errors.ErrCodeInvalidSymbology)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Complete(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"4006381333931", true},
		{"1234567890128", true},
		{"4006381333932", false},
		{"400638133393", false},
		{"400638133393x", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.input); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("a1-2 3.4"); got != "1234" {
		t.Errorf("Digits() = %q, want %q", got, "1234")
	}
	if got := Digits(""); got != "" {
		t.Errorf("Digits(\"\") = %q, want empty", got)
	}
}

func referenceCheckDigit(s string) int {
	sum := 0
	for i, r := range s {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += w * int(r-'0')
	}
	return (10 - sum%10) % 10
}
