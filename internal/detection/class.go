package detection

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Class identifies what a detection box covers.
type Class int

const (
	// ClassCN is a full 11-character container number line.
	ClassCN Class = iota
	// ClassCNABC is the 4-letter owner code.
	ClassCNABC
	// ClassCNNUM is the 7-digit numeric field including the check digit.
	ClassCNNUM
	// ClassTS is the size/type code, e.g. 22G1.
	ClassTS
	// ClassChar is a single character from the character detector.
	ClassChar
)

// Classes lists every class in wire order.
var Classes = []Class{ClassCN, ClassCNABC, ClassCNNUM, ClassTS, ClassChar}

func (c Class) String() string {
	switch c {
	case ClassCN:
		return "CN"
	case ClassCNABC:
		return "CN_ABC"
	case ClassCNNUM:
		return "CN_NUM"
	case ClassTS:
		return "TS"
	case ClassChar:
		return "CHAR"
	default:
		return "Class(" + strconv.Itoa(int(c)) + ")"
	}
}

// Valid reports whether c is one of the defined classes.
func (c Class) Valid() bool {
	switch c {
	case ClassCN, ClassCNABC, ClassCNNUM, ClassTS, ClassChar:
		return true
	default:
		return false
	}
}

// IsRegion reports whether c is produced by the region detector.
func (c Class) IsRegion() bool {
	switch c {
	case ClassCN, ClassCNABC, ClassCNNUM, ClassTS:
		return true
	case ClassChar:
		return false
	default:
		return false
	}
}

// ParseClass accepts a class name (case-insensitive) or its numeric wire value.
func ParseClass(s string) (Class, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		c := Class(n)
		if !c.Valid() {
			return 0, fmt.Errorf("unknown class id %d", n)
		}
		return c, nil
	}
	for _, c := range Classes {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown class %q", s)
}

// MarshalText renders the class by name.
func (c Class) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown class id %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses a class name or numeric id.
func (c *Class) UnmarshalText(text []byte) error {
	v, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// UnmarshalJSON accepts both "CN_ABC" and 1.
func (c *Class) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return c.UnmarshalText([]byte(strconv.Itoa(n)))
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("class must be a name or number: %w", err)
	}
	return c.UnmarshalText([]byte(s))
}
