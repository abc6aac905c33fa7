// Package iso6346 implements the ISO 6346 container identification code:
// the check-digit algorithm, parsing and the sentinel used when no code
// could be read.
package iso6346

import (
	"errors"
	"fmt"
)

const (
	// CodeLength is the length of a complete container code including the check digit.
	CodeLength = 11
	// PayloadLength is the owner code plus the serial number, without the check digit.
	PayloadLength = 10
	// OwnerLength is the number of owner-code letters (including the category identifier).
	OwnerLength = 4
	// NumFieldLength is the length of the numeric field as printed on containers,
	// serial number plus check digit.
	NumFieldLength = 7
)

var (
	ErrInvalidCharacter = errors.New("invalid character")
	ErrInvalidLength    = errors.New("invalid length")
	ErrFormat           = errors.New("malformed container code")
	ErrChecksum         = errors.New("check digit mismatch")
)

// letterValues skips 11, 22 and 33.
var letterValues = [26]int{
	10, 12, 13, 14, 15, 16, 17, 18, 19, 20, // A-J
	21, 23, 24, 25, 26, 27, 28, 29, 30, 31, // K-T
	32, 34, 35, 36, 37, 38, // U-Z
}

// CharValue returns the numeric value of a code character.
func CharValue(c byte) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'A' && c <= 'Z':
		return letterValues[c-'A'], nil
	default:
		return 0, fmt.Errorf("%w %q", ErrInvalidCharacter, c)
	}
}

// CheckDigit computes the check digit of a 10-character payload
// (owner code followed by the 6-digit serial).
//
// Each character value is weighted by 2^position, the sum is taken modulo
// 11 and a remainder of 10 yields 0.
func CheckDigit(payload string) (int, error) {
	if len(payload) != PayloadLength {
		return 0, fmt.Errorf("%w: want %d characters, got %d", ErrInvalidLength, PayloadLength, len(payload))
	}
	total := 0
	for i := range PayloadLength {
		v, err := CharValue(payload[i])
		if err != nil {
			return 0, fmt.Errorf("position %d: %w", i, err)
		}
		total += v << i
	}
	d := total % 11
	if d == 10 {
		d = 0
	}
	return d, nil
}

// Complete appends the check digit to a 10-character payload.
func Complete(payload string) (string, error) {
	d, err := CheckDigit(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", payload, d), nil
}

// Validate checks an 11-character code for shape and check digit.
func Validate(code string) error {
	_, err := Parse(code)
	return err
}
