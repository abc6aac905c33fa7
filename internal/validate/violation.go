package validate

import (
	"fmt"
	"sort"
)

// Kind classifies a violation.
type Kind string

const (
	// KindFormat is a value that does not match its field's pattern.
	KindFormat Kind = "format"
	// KindLength is a CN value that is not 11 characters long.
	KindLength Kind = "length"
	// KindMissing is an attribute present without a value.
	KindMissing Kind = "missing"
	// KindChecksum is a well-formed CN whose check digit is wrong.
	KindChecksum Kind = "checksum"
	// KindCrossField is a sub-field that disagrees with the CN.
	KindCrossField Kind = "cross_field"
	// KindRotation marks a rotated box. It is a data-quality notice.
	KindRotation Kind = "rotation"
)

// Category groups kinds for review.
type Category string

const (
	CategoryIllFormed  Category = "ill_formed"
	CategoryChecksum   Category = "checksum"
	CategoryCrossField Category = "cross_field"
	CategoryNotice     Category = "notice"
)

// Category returns the review group of k.
func (k Kind) Category() Category {
	switch k {
	case KindFormat, KindLength, KindMissing:
		return CategoryIllFormed
	case KindChecksum:
		return CategoryChecksum
	case KindCrossField:
		return CategoryCrossField
	default:
		return CategoryNotice
	}
}

// Severity orders kinds for manual review, highest first. Checksum
// mismatches on well-formed codes are the likeliest reading errors.
func (k Kind) Severity() int {
	switch k.Category() {
	case CategoryChecksum:
		return 3
	case CategoryCrossField:
		return 2
	case CategoryIllFormed:
		return 1
	default:
		return 0
	}
}

// IsNotice reports whether k is informational only.
func (k Kind) IsNotice() bool { return k.Category() == CategoryNotice }

// Violation is one failed rule on one record.
type Violation struct {
	Record string `json:"record"           yaml:"record"`
	Field  Field  `json:"field"            yaml:"field"`
	Kind   Kind   `json:"kind"             yaml:"kind"`
	Value  string `json:"value"            yaml:"value"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (v Violation) String() string {
	s := fmt.Sprintf("%s: %s %s %q", v.Record, v.Field, v.Kind, v.Value)
	if v.Detail != "" {
		s += " (" + v.Detail + ")"
	}
	return s
}

// SortForReview orders violations by severity, then record, keeping the
// original order inside each group.
func SortForReview(vs []Violation) []Violation {
	out := append([]Violation(nil), vs...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Kind.Severity(), out[j].Kind.Severity()
		if si != sj {
			return si > sj
		}
		return out[i].Record < out[j].Record
	})
	return out
}

// Report aggregates the outcome of validating many records.
type Report struct {
	Records    int            `json:"records"     yaml:"records"`
	Clean      int            `json:"clean"       yaml:"clean"`
	Notices    int            `json:"notices"     yaml:"notices"`
	ByKind     map[Kind]int   `json:"by_kind"     yaml:"by_kind"`
	ByCategory map[string]int `json:"by_category" yaml:"by_category"`
	Violations []Violation    `json:"violations"  yaml:"violations"`
}

// Errors returns the number of violations that are not notices.
func (r Report) Errors() int { return len(r.Violations) - r.Notices }
