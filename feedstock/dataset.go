package feedstock

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Column names of the pyrolysis reference datasets.
const (
	TypeColumn          = "Type"
	OriginColumn        = "Origin"
	ChallengeTextColumn = "Soil Challenges to amend"

	challengeFlagPrefix = "Challenge_"
)

// ErrMissingTypeColumn marks a reference dataset without the Type column.
var ErrMissingTypeColumn = errors.New("dataset has no Type column")

// PropertyColumns maps property keys to the dataset columns summarised in the property and
// range indices.
var PropertyColumns = []struct {
	Key    string
	Column string
}{
	{Key: "ph", Column: "pH"},
	{Key: "carbon_content", Column: "C (%)"},
	{Key: "biochar_yield", Column: "Biochar Yield (%)"},
	{Key: "oc_ratio", Column: "O/C ratio"},
	{Key: "hc_ratio", Column: "H/C ratio"},
}

// Record is one normalised row of a reference dataset.
type Record struct {
	Row           int
	Type          string
	Origin        string
	ChallengeText string
	Numbers       map[string]float64
	Text          map[string]string
	Flags         map[string]bool
}

// Number returns a numeric property and whether it was present.
func (r Record) Number(column string) (float64, bool) {
	v, ok := r.Numbers[column]
	return v, ok
}

func (r Record) clone() Record {
	out := r
	out.Numbers = make(map[string]float64, len(r.Numbers))
	for k, v := range r.Numbers {
		out.Numbers[k] = v
	}
	out.Text = make(map[string]string, len(r.Text))
	for k, v := range r.Text {
		out.Text[k] = v
	}
	out.Flags = make(map[string]bool, len(r.Flags))
	for k, v := range r.Flags {
		out.Flags[k] = v
	}
	return out
}

// HasType reports whether the row carries a feedstock name.
func (r Record) HasType() bool {
	return r.Type != ""
}

// Stats summarises the non-absent values of one property. With Count 0 the other fields
// are NaN.
type Stats struct {
	Column string  `json:"column" yaml:"column"`
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Dataset is an immutable reference table with its derived indices. All indices are built
// by NewDataset and never change afterwards, so a Dataset is safe for concurrent readers.
type Dataset struct {
	name    string
	columns []string
	records []Record

	properties map[string]Stats
	ranges     map[string]map[string]Stats
	challenges map[string][]string

	// NameKey(Type) -> first spelling seen, in row order.
	typeNames map[string]string
	typeOrder []string
	// NameKey(Type) -> NameKey(label) of every Challenge_* column set in at least one row.
	// Only these count towards a score; free-text labels are informational.
	flagKeys  map[string]map[string]struct{}
}

// NewDataset normalises the raw table and extracts the property, range and challenge
// indices.
func NewDataset(name string, table *Table) (*Dataset, error) {
	if table == nil {
		return nil, ErrEmptyTable
	}
	columns := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = CleanHeader(col)
	}
	typeIdx := indexOf(columns, TypeColumn)
	if typeIdx < 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingTypeColumn)
	}
	d := &Dataset{
		name:      name,
		columns:   columns,
		records:   make([]Record, 0, len(table.Rows)),
		typeNames: make(map[string]string),
		flagKeys:  make(map[string]map[string]struct{}),
	}
	for i, row := range table.Rows {
		d.records = append(d.records, buildRecord(i, columns, row))
	}
	d.extract()
	return d, nil
}

func buildRecord(rowIdx int, columns []string, row []string) Record {
	rec := Record{
		Row:     rowIdx,
		Numbers: make(map[string]float64),
		Text:    make(map[string]string),
		Flags:   make(map[string]bool),
	}
	for i, col := range columns {
		cell := ""
		if i < len(row) {
			cell = cleanCell(row[i])
		}
		switch {
		case col == TypeColumn:
			if !isAbsentText(cell) {
				rec.Type = strings.Join(strings.Fields(cell), " ")
			}
		case col == OriginColumn:
			if !isAbsentText(cell) {
				rec.Origin = cell
			}
		case col == ChallengeTextColumn:
			if !isAbsentText(cell) {
				rec.ChallengeText = cell
			}
		case strings.HasPrefix(col, challengeFlagPrefix):
			rec.Flags[humanizeFlag(col)] = ParseBool(cell)
		case isNumericColumn(col):
			if v, ok := ParseNumber(cell); ok {
				rec.Numbers[col] = v
			}
		default:
			rec.Text[col] = cell
		}
	}
	return rec
}

func (d *Dataset) extract() {
	d.properties = make(map[string]Stats, len(PropertyColumns))
	for _, prop := range PropertyColumns {
		d.properties[prop.Key] = summarize(prop.Column, d.records)
	}

	groups := make(map[string][]Record)
	for _, rec := range d.records {
		if !rec.HasType() {
			continue
		}
		key := NameKey(rec.Type)
		if _, ok := d.typeNames[key]; !ok {
			d.typeNames[key] = rec.Type
			d.typeOrder = append(d.typeOrder, key)
		}
		groups[key] = append(groups[key], rec)
	}

	d.ranges = make(map[string]map[string]Stats, len(groups))
	d.challenges = make(map[string][]string, len(groups))
	for _, key := range d.typeOrder {
		rows := groups[key]
		display := d.typeNames[key]
		perType := make(map[string]Stats, len(PropertyColumns))
		for _, prop := range PropertyColumns {
			perType[prop.Key] = summarize(prop.Column, rows)
		}
		d.ranges[display] = perType

		d.challenges[display] = collectChallenges(d.columns, rows)
		d.flagKeys[key] = collectFlags(rows)
	}
}

func summarize(column string, rows []Record) Stats {
	st := Stats{Column: column, Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	var sum float64
	for _, rec := range rows {
		v, ok := rec.Numbers[column]
		if !ok {
			continue
		}
		if st.Count == 0 {
			st.Min, st.Max = v, v
		} else {
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
		}
		sum += v
		st.Count++
	}
	if st.Count > 0 {
		st.Mean = sum / float64(st.Count)
	}
	return st
}

// collectChallenges unions the free-text labels and the set boolean challenge columns of
// one feedstock's rows. Labels keep their first-seen order.
func collectChallenges(columns []string, rows []Record) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(label string) {
		label = strings.TrimSpace(label)
		if label == "" {
			return
		}
		key := NameKey(label)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}
	for _, rec := range rows {
		for _, token := range strings.Split(rec.ChallengeText, ";") {
			add(token)
		}
	}
	for _, col := range columns {
		if !strings.HasPrefix(col, challengeFlagPrefix) {
			continue
		}
		label := humanizeFlag(col)
		for _, rec := range rows {
			if rec.Flags[label] {
				add(label)
				break
			}
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// collectFlags returns the challenges whose boolean column is true in any of the rows.
func collectFlags(rows []Record) map[string]struct{} {
	set := make(map[string]struct{})
	for _, rec := range rows {
		for label, on := range rec.Flags {
			if on {
				set[NameKey(label)] = struct{}{}
			}
		}
	}
	return set
}

func humanizeFlag(column string) string {
	name := strings.TrimPrefix(column, challengeFlagPrefix)
	return strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
}

func isAbsentText(cell string) bool {
	_, ok := absentTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

func indexOf(values []string, name string) int {
	for i, v := range values {
		if v == name {
			return i
		}
	}
	return -1
}

// Name identifies the dataset tier ("primary" or "fallback").
func (d *Dataset) Name() string { return d.name }

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Columns returns the cleaned header.
func (d *Dataset) Columns() []string { return cloneStrings(d.columns) }

// Records returns a copy of the records in source order.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	out := make([]Record, len(d.records))
	for i, rec := range d.records {
		out[i] = rec.clone()
	}
	return out
}

// Types returns the distinct feedstock names in first-seen order.
func (d *Dataset) Types() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.typeOrder))
	for i, key := range d.typeOrder {
		out[i] = d.typeNames[key]
	}
	return out
}

// Properties returns the dataset-wide statistics keyed by property key.
func (d *Dataset) Properties() map[string]Stats {
	out := make(map[string]Stats, len(d.properties))
	for k, v := range d.properties {
		out[k] = v
	}
	return out
}

// Ranges returns the per-feedstock statistics keyed by feedstock name.
func (d *Dataset) Ranges() map[string]map[string]Stats {
	out := make(map[string]map[string]Stats, len(d.ranges))
	for name, stats := range d.ranges {
		inner := make(map[string]Stats, len(stats))
		for k, v := range stats {
			inner[k] = v
		}
		out[name] = inner
	}
	return out
}

// Challenges returns the deduplicated challenge labels per feedstock name.
func (d *Dataset) Challenges() map[string][]string {
	out := make(map[string][]string, len(d.challenges))
	for name, labels := range d.challenges {
		out[name] = cloneStrings(labels)
	}
	return out
}

// FeedstockRange looks up the statistics of one feedstock, ignoring case and surrounding
// whitespace.
func (d *Dataset) FeedstockRange(name string) (map[string]Stats, bool) {
	display, ok := d.typeNames[NameKey(name)]
	if !ok {
		return nil, false
	}
	stats := d.ranges[display]
	out := make(map[string]Stats, len(stats))
	for k, v := range stats {
		out[k] = v
	}
	return out, true
}

// FeedstockChallenges returns the challenge labels documented for one feedstock.
func (d *Dataset) FeedstockChallenges(name string) ([]string, bool) {
	display, ok := d.typeNames[NameKey(name)]
	if !ok {
		return nil, false
	}
	return cloneStrings(d.challenges[display]), true
}

// HasType reports whether any record carries the feedstock name.
func (d *Dataset) HasType(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.typeNames[NameKey(name)]
	return ok
}

// Addresses reports whether the feedstock's boolean column for the challenge is true in at
// least one of its rows. Labels only present in the free-text column do not count.
func (d *Dataset) Addresses(feedstock string, c Challenge) bool {
	if d == nil {
		return false
	}
	set, ok := d.flagKeys[NameKey(feedstock)]
	if !ok {
		return false
	}
	_, ok = set[NameKey(string(c))]
	return ok
}
