// Package ean implements the GS1 EAN-13 check digit.
//
// The check digit is the last of the 13 digits of an EAN-13 code and is
// derived from the 12 preceding digits: digits at even positions (0-indexed
// from the left) weigh 1, digits at odd positions weigh 3, and the check
// digit brings the weighted sum up to the next multiple of ten.
//
//	d, _ := ean.CheckDigit("400638133393") // 1
//	code, _ := ean.Complete("4006381-33393") // "4006381333931"
package ean

import (
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

const (
	// PayloadLength is the number of data digits preceding the check digit.
	PayloadLength = 12
	// CodeLength is the full length of an EAN-13 code.
	CodeLength = 13
)

// CheckDigit computes the EAN-13 check digit for a 12-digit string.
// It returns an ErrCodeInvalidSymbology error when digits12 is not exactly
// 12 ASCII digits.
func CheckDigit(digits12 string) (int, error) {
	if len(digits12) != PayloadLength || !allDigits(digits12) {
		return 0, errors.New(errors.ErrCodeInvalidSymbology,
			"EAN-13 check digit needs exactly %d digits, got %q", PayloadLength, digits12)
	}
	return checkDigit(digits12), nil
}

func checkDigit(digits12 string) int {
	sum := 0
	for i := 0; i < PayloadLength; i++ {
		d := int(digits12[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}
	return (10 - sum%10) % 10
}

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Complete normalizes s to digits and returns a 13-digit EAN-13 code.
//
// Twelve digits get their check digit appended; thirteen digits are returned
// as-is, leaving check digit verification to the symbol encoder. Any other
// digit count is rejected with ErrCodeInvalidSymbology.
func Complete(s string) (string, error) {
	num := Digits(s)
	switch len(num) {
	case PayloadLength:
		return num + string(rune('0'+checkDigit(num))), nil
	case CodeLength:
		return num, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidSymbology,
			"EAN-13 requires 12 or 13 digits, got %d", len(num))
	}
}

// Valid reports whether code is a 13-digit string with a correct check digit.
func Valid(code string) bool {
	if len(code) != CodeLength || !allDigits(code) {
		return false
	}
	return checkDigit(code[:PayloadLength]) == int(code[PayloadLength]-'0')
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
