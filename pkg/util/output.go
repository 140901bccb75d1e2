package util

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/textmill/textmill/pkg/core/results"
)

// WriteResults writes result lines to the given file, one line per result,
// newline-terminated. The file is created (or truncated) even when there are
// no results, so an empty run still leaves an empty artifact behind.
func WriteResults(filename string, lines []string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write result line: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}

	return nil
}

// ResultsDocument is the JSON form of a finished run: identifying metadata
// plus every collected result.
type ResultsDocument struct {
	RunID   string           `json:"run_id"`
	Count   int              `json:"count"`
	Results []results.Result `json:"results"`
}

// WriteResultsJSON writes the collected results as a single JSON document.
func WriteResultsJSON(filename string, runID string, rs []results.Result) error {
	doc := ResultsDocument{
		RunID:   runID,
		Count:   len(rs),
		Results: rs,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

// ReadPayloadLines reads a payload source file, one payload per line.
// Blank lines are skipped; line text is otherwise taken verbatim.
func ReadPayloadLines(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	var payloads []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			payloads = append(payloads, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	return payloads, nil
}
