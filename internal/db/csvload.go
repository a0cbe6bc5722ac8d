package db

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"trialfunnel/pkg"
)

// csvload.go loads the reference data from flat files: a comma-separated
// trial catalog and a tab-separated eligibility table.  Column positions
// are resolved from the header row, so extra columns are tolerated (and, in
// the case of trials, preserved as descriptive fields).

const (
	colTrialID      = "#nct_id"
	colConditions   = "conditions"
	colQuestion     = "question"
	colVariableType = "variable_type"
	colRelation     = "relation"
)

// LoadTrialsFile reads the trial catalog from a CSV or TSV file, choosing
// the delimiter by extension.
func LoadTrialsFile(path string, log *zap.Logger) ([]pkg.Trial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTrials(f, delimiterFor(path), log)
}

// LoadEligibilityFile reads the eligibility table from a CSV or TSV file.
func LoadEligibilityFile(path string, log *zap.Logger) ([]pkg.EligibilityRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseEligibility(f, delimiterFor(path), log)
}

func delimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ParseTrials decodes trial records.  Rows without an id are skipped with a
// warning rather than failing the load.
func ParseTrials(r io.Reader, comma rune, log *zap.Logger) ([]pkg.Trial, error) {
	if log == nil {
		log = zap.NewNop()
	}
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading trials header: %w", err)
	}
	cols := columnIndex(header)
	idCol, ok := cols[colTrialID]
	if !ok {
		return nil, fmt.Errorf("trials file missing %q column", colTrialID)
	}
	condCol, ok := cols[colConditions]
	if !ok {
		return nil, fmt.Errorf("trials file missing %q column", colConditions)
	}

	var trials []pkg.Trial
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading trials line %d: %w", line, err)
		}
		id := strings.TrimSpace(record[idCol])
		if id == "" {
			log.Warn("skipping trial row without id", zap.Int("line", line))
			continue
		}
		t := pkg.Trial{ID: id, Conditions: record[condCol]}
		for name, i := range cols {
			if i == idCol || i == condCol || i >= len(record) || record[i] == "" {
				continue
			}
			if t.Fields == nil {
				t.Fields = make(map[string]string)
			}
			t.Fields[name] = record[i]
		}
		trials = append(trials, t)
	}
	return trials, nil
}

// ParseEligibility decodes eligibility rows.  The relation column must hold
// JSON; rows whose relation is not even valid JSON are kept regardless —
// deciding what a broken relation means for a trial is the funnel's policy,
// not the loader's.
func ParseEligibility(r io.Reader, comma rune, log *zap.Logger) ([]pkg.EligibilityRow, error) {
	if log == nil {
		log = zap.NewNop()
	}
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading eligibility header: %w", err)
	}
	cols := columnIndex(header)
	for _, name := range []string{colTrialID, colQuestion, colVariableType, colRelation} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("eligibility file missing %q column", name)
		}
	}

	var out []pkg.EligibilityRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading eligibility line %d: %w", line, err)
		}
		id := strings.TrimSpace(record[cols[colTrialID]])
		question := strings.TrimSpace(record[cols[colQuestion]])
		if id == "" || question == "" {
			log.Warn("skipping eligibility row without id or question", zap.Int("line", line))
			continue
		}
		relation := record[cols[colRelation]]
		if !json.Valid([]byte(relation)) {
			log.Warn("eligibility row carries invalid relation JSON",
				zap.Int("line", line), zap.String("trial", id))
		}
		out = append(out, pkg.EligibilityRow{
			TrialID:  id,
			Question: question,
			Relation: pkg.EligibilityRelation{
				VariableType: pkg.VariableType(record[cols[colVariableType]]),
				Payload:      json.RawMessage(relation),
			},
		})
	}
	return out, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}
