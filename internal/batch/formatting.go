package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// imageRecord is the serialized form of one Item.
type imageRecord struct {
	File   string           `json:"file"             yaml:"file"`
	Result *pipeline.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string           `json:"error,omitempty"  yaml:"error,omitempty"`
}

type batchRecord struct {
	RunID  string                 `json:"run_id" yaml:"run_id"`
	Images []imageRecord           `json:"images" yaml:"images"`
	Stats  pipeline.ParallelStats `json:"stats"  yaml:"stats"`
}

func formatBatchResults(r *Result, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(r)
	case "yaml":
		return formatYAML(r)
	case "csv":
		return formatCSV(r)
	case "", "text":
		return formatText(r)
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func toRecord(r *Result) batchRecord {
	rec := batchRecord{RunID: r.RunID, Images: make([]imageRecord, len(r.Items)), Stats: r.Stats()}
	for i, it := range r.Items {
		rec.Images[i] = imageRecord{File: it.File, Result: it.Result}
		if it.Err != nil {
			rec.Images[i].Error = it.Err.Error()
		}
	}
	return rec
}

func formatJSON(r *Result) (string, error) {
	bts, err := json.MarshalIndent(toRecord(r), "", "  ")
	return string(bts), err
}

func formatYAML(r *Result) (string, error) {
	bts, err := yaml.Marshal(toRecord(r))
	return string(bts), err
}

func formatCSV(r *Result) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	header := append([]string{"file"}, pipeline.CSVHeader...)
	header = append(header, "error")
	if err := writer.Write(header); err != nil {
		return "", err
	}
	for _, it := range r.Items {
		row := []string{it.File}
		if it.Result != nil {
			row = append(row, pipeline.ToCSVRow(it.Result)...)
		} else {
			row = append(row, make([]string, len(pipeline.CSVHeader))...)
		}
		errText := ""
		if it.Err != nil {
			errText = it.Err.Error()
		}
		if err := writer.Write(append(row, errText)); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText writes one line per file: path, tab, code or status.
func formatText(r *Result) (string, error) {
	var output strings.Builder
	for _, it := range r.Items {
		var line string
		switch {
		case it.Err != nil:
			line = "error: " + it.Err.Error()
		case it.Result != nil:
			text, err := pipeline.ToPlainText(it.Result)
			if err != nil {
				return "", err
			}
			line = text
		default:
			line = "skipped"
		}
		fmt.Fprintf(&output, "%s\t%s\n", it.File, line)
	}
	return output.String(), nil
}
