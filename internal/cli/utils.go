// Package cli provides result rendering for the docread command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/docread/internal/extract"
	"github.com/hyperjump/docread/pkg/utils"
)

// OutputFormat is the format for extraction output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

// ClassifiedPath pairs a path with its classification, for the classify command.
type ClassifiedPath struct {
	Path string `json:"path"`
	extract.Classification
}

// WriteResults writes extraction results to w in the given format.
// A single successful result in text format is written bare, so that
// `docread extract file` behaves like cat.
func WriteResults(w io.Writer, results []extract.Result, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if results == nil {
			results = []extract.Result{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		return writeResultsText(w, results)
	}
}

func writeResultsText(w io.Writer, results []extract.Result) error {
	if len(results) == 1 && results[0].OK() {
		_, err := io.WriteString(w, results[0].Text)
		return err
	}
	for i, r := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "==> %s <==\n", r.Path); err != nil {
			return err
		}
		var err error
		if r.OK() {
			_, err = fmt.Fprintln(w, r.Text)
		} else {
			_, err = fmt.Fprintf(w, "error (%s): %s\n", r.Kind, r.Message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteClassifications writes classify output in the given format.
func WriteClassifications(w io.Writer, items []ClassifiedPath, format OutputFormat) error {
	if format == OutputJSON {
		if items == nil {
			items = []ClassifiedPath{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	for _, it := range items {
		kind := string(it.Category)
		if it.SubFormat != "" {
			kind += "/" + string(it.SubFormat)
		}
		line := fmt.Sprintf("%s\t%s", it.Path, kind)
		if !it.Supported() {
			line += "\t" + it.Reason
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Truncate shortens each successful result's text to maxLen runes, for --preview.
func Truncate(results []extract.Result, maxLen int) {
	for i := range results {
		results[i].Text = utils.Truncate(results[i].Text, maxLen)
	}
}
