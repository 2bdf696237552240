package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// tabular values know how to print themselves as a table.
type tabular interface {
	header() []string
	rows() [][]string
}

// render writes v in the configured format.
func (cli *CLI) render(w io.Writer, v any) error {
	switch cli.v.GetString("format") {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	}
	t, ok := v.(tabular)
	if !ok {
		return fmt.Errorf("%T cannot be printed as a table", v)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(t.header())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetBorder(false)
	table.AppendBulk(t.rows())
	table.Render()
	return nil
}
