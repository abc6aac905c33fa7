package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ToJSON serializes a single Result to pretty JSON.
func ToJSON(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAML serializes a single Result to YAML.
func ToYAML(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := yaml.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText returns the code, or the status when no code was read.
func ToPlainText(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	if res.Status.OK() {
		return res.Code, nil
	}
	if res.Reason != "" {
		return fmt.Sprintf("%s: %s", res.Status, res.Reason), nil
	}
	return string(res.Status), nil
}

// CSVHeader lists the columns written by ToCSVRow.
var CSVHeader = []string{"status", "code", "selection", "orientation", "reassembled", "retried", "region_boxes", "total_ms"}

// ToCSVRow flattens a Result into the CSVHeader columns.
func ToCSVRow(res *Result) []string {
	reassembled := res.Characters != nil && res.Characters.Reassembled
	return []string{
		string(res.Status),
		res.Code,
		res.Selection.String(),
		res.Orientation.String(),
		strconv.FormatBool(reassembled),
		strconv.FormatBool(res.Retried),
		strconv.Itoa(res.RegionBoxes),
		strconv.FormatFloat(float64(res.Timing.TotalNs)/1e6, 'f', 3, 64),
	}
}

// ToCSV exports a single result as CSV with header.
func ToCSV(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(CSVHeader)
	_ = w.Write(ToCSVRow(res))
	w.Flush()
	return buf.String(), w.Error()
}

// ValidateResult performs simple consistency checks.
func ValidateResult(res *Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", res.Width, res.Height)
	}
	if res.Status.OK() && res.Code == "" {
		return errors.New("found status without code")
	}
	for i, b := range res.Boxes {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("box %d: %w", i, err)
		}
		if b.X1 < 0 || b.Y1 < 0 || b.X2 > float64(res.Width) || b.Y2 > float64(res.Height) {
			return fmt.Errorf("box %d exceeds image bounds", i)
		}
	}
	return nil
}
