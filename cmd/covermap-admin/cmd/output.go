package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output format constants.
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: marshal JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printYAML(v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: marshal YAML: %v\n", err)
		return
	}
	fmt.Print(string(data))
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

type tableWriter struct {
	w *tabwriter.Writer
}

func newTable(headers ...string) *tableWriter {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	t := &tableWriter{w: w}
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	return t
}

func (t *tableWriter) AddRow(values ...string) {
	fmt.Fprintln(t.w, strings.Join(values, "\t"))
}

func (t *tableWriter) Flush() {
	_ = t.w.Flush()
}
