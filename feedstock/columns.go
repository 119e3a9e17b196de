package feedstock

import (
	"fmt"
	"strconv"
	"strings"
)

// SampleColumns names the soil sample columns used for challenge identification. Empty
// fields are unresolved.
type SampleColumns struct {
	SOC         string `yaml:"soc" json:"soc"`
	PH          string `yaml:"ph" json:"ph"`
	Moisture    string `yaml:"moisture" json:"moisture"`
	Temperature string `yaml:"temperature" json:"temperature"`
}

// Complete reports whether the two columns required for identification were found.
func (c SampleColumns) Complete() bool {
	return c.SOC != "" && c.PH != ""
}

type columnRole struct {
	mean     string
	keys     []string
	excluded []string
}

var (
	socRole      = columnRole{mean: "mean_soc", keys: []string{"soc"}, excluded: []string{"biochar_suitability_score"}}
	phRole       = columnRole{mean: "mean_ph", keys: []string{"ph"}, excluded: []string{"biochar_suitability_score"}}
	moistureRole = columnRole{mean: "mean_moisture", keys: []string{"moisture", "sm_surface"}}
	tempRole     = columnRole{mean: "mean_temperature", keys: []string{"temp", "temperature"}}
)

// ResolveSampleColumns locates the soil property columns of a sample header. An explicit
// column name or 1-based "#n" index wins; otherwise a literal mean_<x> column, then any
// column containing the key and "mean", then any column containing the key.
func ResolveSampleColumns(header []string, explicit SampleColumns) (SampleColumns, error) {
	var (
		out SampleColumns
		err error
	)
	if out.SOC, err = pickSampleColumn(header, explicit.SOC, socRole); err != nil {
		return out, fmt.Errorf("soc column: %w", err)
	}
	if out.PH, err = pickSampleColumn(header, explicit.PH, phRole); err != nil {
		return out, fmt.Errorf("ph column: %w", err)
	}
	if out.Moisture, err = pickSampleColumn(header, explicit.Moisture, moistureRole); err != nil {
		return out, fmt.Errorf("moisture column: %w", err)
	}
	if out.Temperature, err = pickSampleColumn(header, explicit.Temperature, tempRole); err != nil {
		return out, fmt.Errorf("temperature column: %w", err)
	}
	return out, nil
}

func pickSampleColumn(header []string, explicit string, role columnRole) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		idx, err := matchExplicitColumn(header, explicit)
		if err != nil {
			return "", err
		}
		return header[idx], nil
	}
	for _, col := range header {
		if strings.EqualFold(col, role.mean) {
			return col, nil
		}
	}
	for _, col := range header {
		lower := strings.ToLower(col)
		if role.matches(lower) && strings.Contains(lower, "mean") {
			return col, nil
		}
	}
	for _, col := range header {
		if role.matches(strings.ToLower(col)) {
			return col, nil
		}
	}
	return "", nil
}

func (r columnRole) matches(lower string) bool {
	for _, ex := range r.excluded {
		if lower == ex {
			return false
		}
	}
	for _, key := range r.keys {
		if strings.Contains(lower, key) {
			return true
		}
	}
	return false
}

func matchExplicitColumn(header []string, explicit string) (int, error) {
	trimmed := strings.TrimSpace(explicit)
	for i, col := range header {
		if strings.EqualFold(col, trimmed) {
			return i, nil
		}
	}
	if strings.HasPrefix(trimmed, "#") {
		idx, err := parseColumnIndex(trimmed)
		if err != nil {
			return -1, err
		}
		if idx >= len(header) {
			return -1, fmt.Errorf("column index %s is out of range", trimmed)
		}
		return idx, nil
	}
	return -1, fmt.Errorf("column %q not found", explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	if trimmed == "" {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}
