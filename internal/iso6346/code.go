package iso6346

import (
	"fmt"
	"regexp"
)

// Sentinel is the placeholder produced when no confident code was read.
// Its check digit is wrong, so it never validates.
const Sentinel = "XXXX0000000"

var codePattern = regexp.MustCompile(`^[A-Z]{4}\d{7}$`)

// IsSentinel reports whether s is the no-code placeholder.
func IsSentinel(s string) bool { return s == Sentinel }

// Code is a parsed container identification code.
type Code struct {
	Owner  string // four letters, owner code and category identifier
	serial string // six digits
	Check  int
}

// Parse validates an 11-character code and splits it into its fields.
func Parse(s string) (Code, error) {
	if len(s) != CodeLength {
		return Code{}, fmt.Errorf("%w: %q has %d characters", ErrInvalidLength, s, len(s))
	}
	if !codePattern.MatchString(s) {
		return Code{}, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	want, err := CheckDigit(s[:PayloadLength])
	if err != nil {
		return Code{}, err
	}
	got := int(s[PayloadLength] - '0')
	if got != want {
		return Code{}, fmt.Errorf("%w: %q has %d, expected %d", ErrChecksum, s, got, want)
	}
	return Code{Owner: s[:OwnerLength], serial: s[OwnerLength:PayloadLength], Check: got}, nil
}

// Serial returns the six-digit serial number.
func (c Code) Serial() string { return c.serial }

// NumField returns the seven-character numeric field (serial and check digit),
// the value a CN_NUM region carries.
func (c Code) NumField() string { return fmt.Sprintf("%s%d", c.serial, c.Check) }

// String returns the 11-character form.
func (c Code) String() string { return c.Owner + c.NumField() }

// MarshalText renders the code in its 11-character form.
func (c Code) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
