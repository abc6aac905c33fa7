package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/MeKo-Tech/cnread/internal/validate"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newValidateCommand(a *app) *cobra.Command {
	var (
		format      string
		output      string
		failOnError bool
	)

	cmd := &cobra.Command{
		Use:   "validate <annotations.xml>",
		Short: "Check CVAT container-number annotations for mistakes",
		Long: `Read a CVAT for images 1.1 export and check every annotated code: field
format, ISO 6346 check digit and agreement between the full code and its
owner, numeric and check digit parts. Rotated boxes are reported as notices.

Examples:
  cnread validate annotations.xml
  cnread validate annotations.xml --format json --output report.json
  cnread validate annotations.xml --fail-on-error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := validate.ReadCVATFile(args[0])
			if err != nil {
				return err
			}
			rep := validate.New().ValidateAll(records)
			rep.Violations = validate.SortForReview(rep.Violations)
			a.logger.Info("Annotations validated",
				"records", rep.Records, "errors", rep.Errors(), "notices", rep.Notices)

			text, err := formatReport(rep, format)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, text, output); err != nil {
				return err
			}
			if failOnError && rep.Errors() > 0 {
				return fmt.Errorf("%d annotation error(s) found", rep.Errors())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", outputFormatText, "report format (text, json, yaml)")
	f.StringVarP(&output, "output", "o", "", "write the report to this file instead of stdout")
	f.BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any error-level violation is found")
	return cmd
}

func formatReport(rep validate.Report, format string) (string, error) {
	switch format {
	case outputFormatJSON:
		b, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case outputFormatYAML:
		b, err := yaml.Marshal(rep)
		return string(b), err
	case outputFormatText, "":
		var sb strings.Builder
		for _, v := range rep.Violations {
			level := "error"
			if v.Kind.IsNotice() {
				level = "notice"
			}
			fmt.Fprintf(&sb, "%-6s %s\n", level, v)
		}
		fmt.Fprintf(&sb, "\nrecords: %d  clean: %d  errors: %d  notices: %d\n",
			rep.Records, rep.Clean, rep.Errors(), rep.Notices)
		kinds := make([]string, 0, len(rep.ByKind))
		for k, n := range rep.ByKind {
			kinds = append(kinds, fmt.Sprintf("%s=%d", k, n))
		}
		sort.Strings(kinds)
		if len(kinds) > 0 {
			fmt.Fprintf(&sb, "by kind: %s\n", strings.Join(kinds, " "))
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("invalid report format: %s", format)
	}
}
