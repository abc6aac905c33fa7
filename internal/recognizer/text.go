package recognizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// CleanOptions controls text post-processing behavior.
type CleanOptions struct {
	NormalizeForm      string            // "NFC", "NFKC" (default), "NFD", "NFKD", "" to disable
	FoldWidth          bool              // map full-width and half-width forms to their canonical width
	RemoveControlChars bool              // remove non-printable control characters
	RemoveZeroWidth    bool              // remove zero-width spaces/joiners
	ReplaceMap         map[string]string // string replacements applied after normalization
	Upper              bool              // upper-case with Unicode rules
	AlnumOnly          bool              // keep only ASCII letters and digits
}

// DefaultCleanOptions returns the options used for container codes.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFKC",
		FoldWidth:          true,
		RemoveControlChars: true,
		RemoveZeroWidth:    true,
		Upper:              true,
		AlnumOnly:          true,
	}
}

// PostProcessText applies normalization and cleaning to OCR text.
func PostProcessText(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}

	s = applyNormalization(s, opts)
	if opts.FoldWidth {
		s = width.Fold.String(s)
	}
	if opts.RemoveZeroWidth {
		s = removeZeroWidth(s)
	}
	if opts.RemoveControlChars {
		s = removeControlChars(s)
	}
	if len(opts.ReplaceMap) > 0 {
		s = applyReplaceMap(s, opts.ReplaceMap)
	}
	if opts.Upper {
		s = cases.Upper(language.Und).String(s)
	}
	if opts.AlnumOnly {
		s = keepASCIIAlnum(s)
	}
	return strings.TrimSpace(s)
}

// NormalizeCode cleans a recognized container code with the default options.
func NormalizeCode(s string) string {
	return PostProcessText(s, DefaultCleanOptions())
}

func applyNormalization(s string, opts CleanOptions) string {
	switch strings.ToUpper(opts.NormalizeForm) {
	case "NFC":
		return norm.NFC.String(s)
	case "NFKC":
		return norm.NFKC.String(s)
	case "NFD":
		return norm.NFD.String(s)
	case "NFKD":
		return norm.NFKD.String(s)
	}
	return s
}

func applyReplaceMap(s string, replaceMap map[string]string) string {
	// Replace longer keys first to avoid partial overlaps
	keys := sortedKeysByLength(replaceMap)
	for _, k := range keys {
		s = strings.ReplaceAll(s, k, replaceMap[k])
	}
	return s
}

func sortedKeysByLength(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := range len(keys) - 1 {
		for j := i + 1; j < len(keys); j++ {
			if len(keys[j]) > len(keys[i]) || (len(keys[j]) == len(keys[i]) && keys[j] < keys[i]) {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// removeZeroWidth removes common zero-width characters used in OCR noise.
func removeZeroWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\u200B', // ZERO WIDTH SPACE
			'\u200C', // ZERO WIDTH NON-JOINER
			'\u200D', // ZERO WIDTH JOINER
			'\uFEFF': // ZERO WIDTH NO-BREAK SPACE (BOM)
			// skip
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepASCIIAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
