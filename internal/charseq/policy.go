package charseq

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/cnread/internal/iso6346"
	"github.com/MeKo-Tech/cnread/internal/utils"
)

// Decision is the outcome of the reassembly trigger.
type Decision int

const (
	// Reassemble means the character boxes are rebuilt into a strip.
	Reassemble Decision = iota
	// Ambiguous means a horizontal crop has more boxes than a code has characters.
	Ambiguous
	// TooFew means not enough boxes survived to rebuild the code.
	TooFew
)

func (d Decision) String() string {
	switch d {
	case Reassemble:
		return "reassemble"
	case Ambiguous:
		return "ambiguous"
	case TooFew:
		return "too_few"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// MarshalText renders the decision by name.
func (d Decision) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Policy decides when character boxes are reassembled.
type Policy struct {
	// MinVertical is the minimum box count that triggers reassembly of vertical text.
	MinVertical int
	// ExactHorizontal is the only box count that triggers reassembly of horizontal text.
	ExactHorizontal int
	// MinConfidence drops character boxes below this score before counting.
	MinConfidence float64
}

// DefaultPolicy returns the thresholds the detector models were tuned with.
func DefaultPolicy() Policy {
	return Policy{
		MinVertical:     iso6346.CodeLength,
		ExactHorizontal: iso6346.CodeLength,
		MinConfidence:   0.5,
	}
}

// Validate checks the thresholds are usable.
func (p Policy) Validate() error {
	if p.MinVertical < 1 || p.ExactHorizontal < 1 {
		return errors.New("reassembly box counts must be positive")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("char confidence %v outside [0,1]", p.MinConfidence)
	}
	return nil
}

// Decide applies the trigger to n surviving boxes.
func (p Policy) Decide(o utils.Orientation, n int) Decision {
	switch o {
	case utils.Vertical:
		if n >= p.MinVertical {
			return Reassemble
		}
	case utils.Horizontal:
		if n == p.ExactHorizontal {
			return Reassemble
		}
		if n > p.ExactHorizontal {
			return Ambiguous
		}
	}
	return TooFew
}
