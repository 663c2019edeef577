// Package refdata loads the two static reference tables joined against
// every MATT upload: the community-to-hub mapping and the plan-code
// mapping. Both load once at startup; a load failure is fatal to the
// pipeline and is reported distinctly from upload validation errors.
package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	HubFile  = "Hub.csv"
	PlanFile = "Plan.csv"
)

// HubInfo is the hub assignment for one community number.
type HubInfo struct {
	Hub           string
	CommunityName string
}

// PlanInfo is the display name and collection for one plan code.
type PlanInfo struct {
	PlanName   string
	Collection string
}

// HubReference maps community number to hub details.
type HubReference map[int]HubInfo

// PlanReference maps trimmed plan code to plan details.
type PlanReference map[string]PlanInfo

// Load reads Hub.csv and Plan.csv from dir.
func Load(dir string) (HubReference, PlanReference, error) {
	hubs, err := LoadHubs(filepath.Join(dir, HubFile))
	if err != nil {
		return nil, nil, fmt.Errorf("load hub reference: %w", err)
	}

	plans, err := LoadPlans(filepath.Join(dir, PlanFile))
	if err != nil {
		return nil, nil, fmt.Errorf("load plan reference: %w", err)
	}

	return hubs, plans, nil
}

// LoadHubs reads a community-number keyed hub table. Rows whose
// community number does not parse are skipped.
func LoadHubs(path string) (HubReference, error) {
	rows, idx, err := readTable(path, "Community Number", "Hub", "Community Name")
	if err != nil {
		return nil, err
	}

	ref := make(HubReference, len(rows))
	for _, row := range rows {
		num, err := strconv.Atoi(strings.TrimSpace(field(row, idx["Community Number"])))
		if err != nil {
			continue
		}
		ref[num] = HubInfo{
			Hub:           strings.TrimSpace(field(row, idx["Hub"])),
			CommunityName: strings.TrimSpace(field(row, idx["Community Name"])),
		}
	}
	return ref, nil
}

// LoadPlans reads a plan-code keyed plan table. Codes are trimmed the
// same way the enrichment pipeline trims its join key.
func LoadPlans(path string) (PlanReference, error) {
	rows, idx, err := readTable(path, "Plan Code", "Plan Name", "Collection")
	if err != nil {
		return nil, err
	}

	ref := make(PlanReference, len(rows))
	for _, row := range rows {
		code := strings.TrimSpace(field(row, idx["Plan Code"]))
		if code == "" {
			continue
		}
		ref[code] = PlanInfo{
			PlanName:   strings.TrimSpace(field(row, idx["Plan Name"])),
			Collection: strings.TrimSpace(field(row, idx["Collection"])),
		}
	}
	return ref, nil
}

// readTable reads a headered CSV and resolves the given column names to
// indexes. A missing column is an error: the reference files are under
// our control and a bad header means a bad deployment.
func readTable(path string, columns ...string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", filepath.Base(path), err)
	}

	idx := make(map[string]int, len(columns))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range columns {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("%s: missing column %q", filepath.Base(path), col)
		}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		rows = append(rows, row)
	}
	return rows, idx, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
