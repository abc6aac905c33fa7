package validate

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// labelAttributes maps a CVAT box label to the attribute that carries its text.
var labelAttributes = map[string]struct {
	attr  string
	field Field
}{
	"CN":      {"cn_text", FieldCN},
	"CN_ABC":  {"cn_abc_text", FieldCNABC},
	"CN_NUM":  {"cn_num_text", FieldCNNUM},
	"TS":      {"ts_text", FieldTS},
	"C_DIGIT": {"c_digit_num", FieldCDigit},
}

type cvatAnnotations struct {
	Images []cvatImage `xml:"image"`
}

type cvatImage struct {
	Name  string    `xml:"name,attr"`
	Boxes []cvatBox `xml:"box"`
}

type cvatBox struct {
	Label      string          `xml:"label,attr"`
	Rotation   *string         `xml:"rotation,attr"`
	Attributes []cvatAttribute `xml:"attribute"`
}

type cvatAttribute struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// ReadCVAT parses a CVAT for images 1.1 XML export into one Record per
// image. Only the text attribute matching each box label is collected.
// Malformed XML is an error; odd values are left for the Validator.
func ReadCVAT(r io.Reader) ([]Record, error) {
	var doc cvatAnnotations
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse CVAT annotations: %w", err)
	}

	records := make([]Record, 0, len(doc.Images))
	for _, img := range doc.Images {
		rec := Record{ID: img.Name}
		for _, box := range img.Boxes {
			if box.Rotation != nil {
				rec.Rotated = append(rec.Rotated, box.Label)
			}
			la, ok := labelAttributes[box.Label]
			if !ok {
				continue
			}
			for _, a := range box.Attributes {
				if a.Name == la.attr {
					rec.Add(la.field, strings.TrimSpace(a.Value))
				}
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCVATFile opens and parses a CVAT annotation file.
func ReadCVATFile(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // G304: annotation path is user-provided
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCVAT(f)
}
