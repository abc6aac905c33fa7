package cmd

import (
	"fmt"
	"unicode/utf8"

	"github.com/MeKo-Tech/cnread/internal/iso6346"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
	"github.com/spf13/cobra"
)

// manualEntry cleans a typed code. Unlike OCR output, stray characters are
// kept so the check digit calculation rejects them.
var manualEntry = recognizer.CleanOptions{
	ReplaceMap: map[string]string{" ": "", "-": ""},
	Upper:      true,
}

func newCheckDigitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkdigit <code>...",
		Short: "Compute or verify ISO 6346 check digits",
		Long: `For a 10 character payload (owner code, category and serial) print the
complete 11 character container number. For an 11 character code report
whether its check digit is correct. Spaces and dashes are ignored and
letters are upper-cased; any other character is reported as invalid.

Examples:
  cnread checkdigit CSQU305438
  cnread checkdigit "TTNU 865584-6" MSCU1234566`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			invalid := 0
			for _, arg := range args {
				code := recognizer.PostProcessText(arg, manualEntry)
				switch len(code) {
				case iso6346.PayloadLength:
					full, err := iso6346.Complete(code)
					if err != nil {
						invalid++
						_, _ = fmt.Fprintf(out, "%s\tinvalid: %v\n", code, err)
						continue
					}
					_, _ = fmt.Fprintf(out, "%s\t%s\n", code, full)
				case iso6346.CodeLength:
					if err := iso6346.Validate(code); err != nil {
						invalid++
						_, _ = fmt.Fprintf(out, "%s\tinvalid: %v\n", code, err)
						continue
					}
					_, _ = fmt.Fprintf(out, "%s\tvalid\n", code)
				default:
					invalid++
					_, _ = fmt.Fprintf(out, "%s\tinvalid: %d characters, want %d or %d\n",
						code, utf8.RuneCountInString(code), iso6346.PayloadLength, iso6346.CodeLength)
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d invalid code(s)", invalid)
			}
			return nil
		},
	}
}
