// Package validate cross-checks container codes against their sub-fields
// and the ISO 6346 check digit. It reports every problem it finds and never
// stops at the first one.
package validate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/MeKo-Tech/cnread/internal/iso6346"
)

// Field names a record attribute.
type Field string

const (
	FieldCN     Field = "cn"
	FieldCNABC  Field = "cn_abc"
	FieldCNNUM  Field = "cn_num"
	FieldTS     Field = "ts"
	FieldCDigit Field = "c_digit"
)

// Record holds every value seen for each field of one image. A field may
// carry several candidates when an image has more than one box of a label.
type Record struct {
	ID     string   `json:"id"                yaml:"id"`
	CN     []string `json:"cn,omitempty"      yaml:"cn,omitempty"`
	CNABC  []string `json:"cn_abc,omitempty"  yaml:"cn_abc,omitempty"`
	CNNUM  []string `json:"cn_num,omitempty"  yaml:"cn_num,omitempty"`
	TS     []string `json:"ts,omitempty"      yaml:"ts,omitempty"`
	CDigit []string `json:"c_digit,omitempty" yaml:"c_digit,omitempty"`
	// Rotated lists the labels of boxes that carry a rotation.
	Rotated []string `json:"rotated,omitempty" yaml:"rotated,omitempty"`
}

// Values returns the candidates for a field.
func (r Record) Values(f Field) []string {
	switch f {
	case FieldCN:
		return r.CN
	case FieldCNABC:
		return r.CNABC
	case FieldCNNUM:
		return r.CNNUM
	case FieldTS:
		return r.TS
	case FieldCDigit:
		return r.CDigit
	default:
		return nil
	}
}

// Add appends a candidate value to a field.
func (r *Record) Add(f Field, v string) {
	switch f {
	case FieldCN:
		r.CN = append(r.CN, v)
	case FieldCNABC:
		r.CNABC = append(r.CNABC, v)
	case FieldCNNUM:
		r.CNNUM = append(r.CNNUM, v)
	case FieldTS:
		r.TS = append(r.TS, v)
	case FieldCDigit:
		r.CDigit = append(r.CDigit, v)
	}
}

// Fields lists every field in check order.
var Fields = []Field{FieldCN, FieldCNABC, FieldCNNUM, FieldTS, FieldCDigit}

// Validator applies the format, checksum and cross-field rules.
type Validator struct {
	patterns map[Field]*regexp.Regexp
}

// New returns a Validator with the ISO 6346 field patterns.
func New() *Validator {
	return &Validator{patterns: map[Field]*regexp.Regexp{
		FieldCN:     regexp.MustCompile(`^[A-Z]{4}\d{7}$`),
		FieldCNABC:  regexp.MustCompile(`^[A-Z]{4}$`),
		FieldCNNUM:  regexp.MustCompile(`^\d{7}$`),
		FieldTS:     regexp.MustCompile(`^.\d.\d$`),
		FieldCDigit: regexp.MustCompile(`^\d$`),
	}}
}

// Validate returns every violation in rec. A nil result means the record is clean.
func (v *Validator) Validate(rec Record) []Violation {
	var out []Violation
	add := func(f Field, k Kind, value, detail string) {
		out = append(out, Violation{Record: rec.ID, Field: f, Kind: k, Value: value, Detail: detail})
	}

	for _, label := range rec.Rotated {
		add(Field(strings.ToLower(label)), KindRotation, label, "box has a rotation attribute")
	}

	for _, f := range Fields {
		for _, val := range rec.Values(f) {
			if val == "" {
				add(f, KindMissing, val, "attribute has no value")
				continue
			}
			if !v.patterns[f].MatchString(val) {
				add(f, KindFormat, val, "does not match "+v.patterns[f].String())
			}
		}
	}

	for _, cn := range rec.CN {
		if cn == "" {
			continue
		}
		if n := utf8.RuneCountInString(cn); n != iso6346.CodeLength {
			add(FieldCN, KindLength, cn, fmt.Sprintf("%d characters, want %d", n, iso6346.CodeLength))
			continue
		}
		want, err := iso6346.CheckDigit(cn[:iso6346.PayloadLength])
		last := cn[iso6346.PayloadLength]
		if err != nil || last < '0' || last > '9' {
			// Already reported as a format violation.
			continue
		}
		if got := int(last - '0'); got != want {
			add(FieldCN, KindChecksum, cn, fmt.Sprintf("check digit %d, expected %d", got, want))
		}
	}

	if vio, ok := crossCheck(rec.CN, rec.CNABC, iso6346.OwnerLength, prefix); !ok {
		add(FieldCNABC, KindCrossField, vio, "no CN starts with this owner code")
	}
	if vio, ok := crossCheck(rec.CN, rec.CNNUM, iso6346.NumFieldLength, suffix); !ok {
		add(FieldCNNUM, KindCrossField, vio, "no CN ends with this numeric field")
	}
	if vio, ok := crossCheck(rec.CN, rec.CDigit, 1, checkChar); !ok {
		add(FieldCDigit, KindCrossField, vio, "no CN has this check digit")
	}

	if len(out) > 0 {
		slog.Debug("Record has violations", "record", rec.ID, "count", len(out))
	}
	return out
}

// Projections work on characters, not bytes.

func prefix(cn string, n int) string { return string([]rune(cn)[:n]) }

func suffix(cn string, n int) string {
	r := []rune(cn)
	return string(r[len(r)-n:])
}

func checkChar(cn string, _ int) string { return suffix(cn, 1) }

// crossCheck is satisfied when any CN projection equals any sub-field
// candidate. Empty candidates and CN values too short to project are
// ignored; when either side has nothing left the rule does not apply.
func crossCheck(cns, sub []string, need int, project func(string, int) string) (string, bool) {
	var projections []string
	for _, cn := range cns {
		if utf8.RuneCountInString(cn) >= need {
			projections = append(projections, project(cn, need))
		}
	}
	var candidates []string
	for _, s := range sub {
		if s != "" {
			candidates = append(candidates, s)
		}
	}
	if len(projections) == 0 || len(candidates) == 0 {
		return "", true
	}
	for _, p := range projections {
		for _, c := range candidates {
			if p == c {
				return "", true
			}
		}
	}
	return strings.Join(candidates, ","), false
}

// ValidateAll checks every record and aggregates the result.
func (v *Validator) ValidateAll(records []Record) Report {
	rep := Report{
		Records:    len(records),
		ByKind:     make(map[Kind]int),
		ByCategory: make(map[string]int),
	}
	for _, rec := range records {
		vs := v.Validate(rec)
		errs := 0
		for _, vi := range vs {
			rep.ByKind[vi.Kind]++
			rep.ByCategory[string(vi.Kind.Category())]++
			if vi.Kind.IsNotice() {
				rep.Notices++
			} else {
				errs++
			}
		}
		if errs == 0 {
			rep.Clean++
		}
		rep.Violations = append(rep.Violations, vs...)
	}
	return rep
}
