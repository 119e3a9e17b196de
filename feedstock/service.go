package feedstock

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Output columns appended to every soil sample batch.
const (
	ColumnFeedstock = "Recommended_Feedstock"
	ColumnReason    = "Recommendation_Reason"
	ColumnSource    = "Data_Source"
	ColumnQuality   = "Data_Quality"
)

// InsufficientData is the feedstock value written when SOC or pH cannot be located.
const InsufficientData = "Insufficient data"

var insufficientResult = Result{
	Feedstock: InsufficientData,
	Reason:    "Missing SOC or pH data for challenge identification",
	Source:    SourceGeneralDefault,
	Quality:   QualityLow,
}

// Options tunes a Recommender.
type Options struct {
	// Columns forces specific sample columns; empty fields are auto-detected.
	Columns   SampleColumns
	Allowlist Allowlist

	// Fill values for absent moisture and temperature; nil selects DefaultMoisture and
	// DefaultTemperature.
	DefaultMoisture    *float64
	DefaultTemperature *float64

	// Workers bounds the goroutines scoring a batch.
	Workers int
}

func (o *Options) applyDefaults() {
	if o.Allowlist == nil {
		o.Allowlist = MainCropAllowlist()
	}
	if o.DefaultMoisture == nil {
		o.DefaultMoisture = Float(DefaultMoisture)
	}
	if o.DefaultTemperature == nil {
		o.DefaultTemperature = Float(DefaultTemperature)
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
}

// OptionsFromConfig maps the file configuration onto recommender options.
func OptionsFromConfig(cfg Config) Options {
	return Options{
		Columns:            cfg.Columns,
		DefaultMoisture:    copyFloat(cfg.Defaults.Moisture),
		DefaultTemperature: copyFloat(cfg.Defaults.Temperature),
		Workers:            cfg.Workers,
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}

// Recommender scores soil sample batches against loaded reference data. It holds no
// mutable state and may be shared between goroutines.
type Recommender struct {
	refs   *References
	opts   Options
	logger *zap.Logger
}

// NewRecommender wires reference data and options. refs may be nil or partially loaded.
func NewRecommender(refs *References, opts Options, logger *zap.Logger) *Recommender {
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if refs == nil {
		refs = &References{}
	}
	return &Recommender{refs: refs, opts: opts, logger: logger}
}

// References returns the reference tiers in use.
func (r *Recommender) References() *References { return r.refs }

// RecommendSample identifies challenges for one sample and matches a feedstock. Missing
// moisture and temperature take the neutral defaults.
func (r *Recommender) RecommendSample(m Measurements) Result {
	return r.refs.Match(IdentifyChallenges(r.withDefaults(m)), r.opts.Allowlist)
}

func (r *Recommender) withDefaults(m Measurements) Measurements {
	if m.Moisture == nil {
		m.Moisture = copyFloat(r.opts.DefaultMoisture)
	}
	if m.Temperature == nil {
		m.Temperature = copyFloat(r.opts.DefaultTemperature)
	}
	return m
}

// RecommendTable returns a copy of the batch with the four recommendation columns set on
// every row. Data problems never fail the call; only a cancelled context does.
func (r *Recommender) RecommendTable(ctx context.Context, in *Table) (*Table, error) {
	if in == nil {
		in = &Table{Rows: [][]string{}}
	}
	out := in.Clone()
	results := make([]Result, out.Len())

	cols, err := ResolveSampleColumns(out.Columns, r.opts.Columns)
	if err != nil {
		r.logger.Warn("configured sample column unusable, falling back to auto-detection", zap.Error(err))
		cols, _ = ResolveSampleColumns(out.Columns, SampleColumns{})
	}

	if !cols.Complete() {
		r.logger.Warn("missing required columns (SOC or pH)",
			zap.String("soc", cols.SOC),
			zap.String("ph", cols.PH))
		for i := range results {
			results[i] = insufficientResult
		}
	} else {
		r.logger.Debug("using sample columns",
			zap.String("soc", cols.SOC),
			zap.String("ph", cols.PH),
			zap.String("moisture", cols.Moisture),
			zap.String("temperature", cols.Temperature))
		if !r.refs.Available() {
			r.logger.Warn("no pyrolysis data available")
		}
		if err := r.scoreRows(ctx, out, cols, results); err != nil {
			return nil, err
		}
	}

	if err := writeResults(out, results); err != nil {
		return nil, err
	}
	r.logSummary(results)
	return out, nil
}

func (r *Recommender) scoreRows(ctx context.Context, t *Table, cols SampleColumns, results []Result) error {
	idx := sampleIndices{
		soc:         t.ColumnIndex(cols.SOC),
		ph:          t.ColumnIndex(cols.PH),
		moisture:    t.ColumnIndex(cols.Moisture),
		temperature: t.ColumnIndex(cols.Temperature),
	}
	n := len(results)
	if n == 0 {
		return nil
	}
	workers := r.opts.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = r.RecommendSample(idx.measurements(t, i))
			}
			return nil
		})
	}
	return g.Wait()
}

type sampleIndices struct {
	soc, ph, moisture, temperature int
}

func (s sampleIndices) measurements(t *Table, row int) Measurements {
	return Measurements{
		SOC:         cellNumber(t, row, s.soc),
		PH:          cellNumber(t, row, s.ph),
		Moisture:    cellNumber(t, row, s.moisture),
		Temperature: cellNumber(t, row, s.temperature),
	}
}

func cellNumber(t *Table, row, col int) *float64 {
	if col < 0 {
		return nil
	}
	v, ok := ParseNumber(t.Cell(row, col))
	if !ok {
		return nil
	}
	return &v
}

func writeResults(t *Table, results []Result) error {
	feedstocks := make([]string, len(results))
	reasons := make([]string, len(results))
	sources := make([]string, len(results))
	qualities := make([]string, len(results))
	for i, res := range results {
		feedstocks[i] = res.Feedstock
		reasons[i] = res.Reason
		sources[i] = string(res.Source)
		qualities[i] = string(res.Quality)
	}
	for _, col := range []struct {
		name   string
		values []string
	}{
		{ColumnFeedstock, feedstocks},
		{ColumnReason, reasons},
		{ColumnSource, sources},
		{ColumnQuality, qualities},
	} {
		if err := t.SetColumn(col.name, col.values); err != nil {
			return err
		}
	}
	return nil
}

// FeedstockCount is one line of a batch summary.
type FeedstockCount struct {
	Feedstock string
	Count     int
}

// Summarize counts recommendations per feedstock, most frequent first and ties by name.
func Summarize(results []Result) []FeedstockCount {
	counts := make(map[string]int)
	for _, res := range results {
		counts[res.Feedstock]++
	}
	out := make([]FeedstockCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, FeedstockCount{Feedstock: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Feedstock < out[j].Feedstock
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func (r *Recommender) logSummary(results []Result) {
	summary := Summarize(results)
	if len(summary) > 10 {
		summary = summary[:10]
	}
	for _, line := range summary {
		r.logger.Info("recommendation summary",
			zap.String("feedstock", line.Feedstock),
			zap.Int("locations", line.Count))
	}
}
