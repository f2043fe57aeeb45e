package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tally/internal/api"
)

const tableNameWidth = 60

func parseFeatureID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid feature id %q", arg)
	}
	return id, nil
}

func buildFeatureRows(features []api.Feature) [][]string {
	rows := make([][]string, 0, len(features))
	for _, f := range features {
		rows = append(rows, []string{
			strconv.FormatInt(f.ID, 10),
			strconv.FormatInt(f.Priority, 10),
			f.Category,
			truncateCell(f.Name, tableNameWidth),
			yesNo(f.Passes),
		})
	}
	return rows
}

func truncateCell(value string, width int) string {
	value = strings.TrimSpace(value)
	if width <= 3 || len(value) <= width {
		return value
	}
	return value[:width-3] + "..."
}

func printFeatureDetail(out io.Writer, f api.Feature) {
	fmt.Fprintf(out, "Feature %d: %s\n", f.ID, f.Name)
	fmt.Fprintf(out, "  Priority:    %d\n", f.Priority)
	fmt.Fprintf(out, "  Category:    %s\n", f.Category)
	fmt.Fprintf(out, "  Passes:      %s\n", yesNo(f.Passes))
	fmt.Fprintf(out, "  Description: %s\n", f.Description)
	fmt.Fprintln(out, "  Steps:")
	for i, step := range f.Steps {
		fmt.Fprintf(out, "    %d. %s\n", i+1, step)
	}
}

// readFeatureInputs accepts either a bare JSON array of features or an object
// wrapping one under "features", the same shapes the seed importer takes.
func readFeatureInputs(path string) ([]api.FeatureInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	var inputs []api.FeatureInput
	if err := json.Unmarshal(data, &inputs); err == nil {
		return inputs, nil
	}
	var wrapper struct {
		Features []api.FeatureInput `json:"features"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse import file %s: %w", path, err)
	}
	return wrapper.Features, nil
}
