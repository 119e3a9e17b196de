package feedstock

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const samplesCSV = `hex_id,mean_soc,mean_ph,mean_moisture,mean_temperature
h1,1.5,7,50,25
h2,3,9,20,35
h3,3,7,,
h4,,7,50,25
h5,3,4,10,20
h6,3,9,50,20
`

func newTestRecommender(t *testing.T, opts Options) (*Recommender, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewRecommender(testReferences(t), opts, zap.New(core)), logs
}

func column(t *testing.T, tbl *Table, name string) []string {
	t.Helper()
	idx := tbl.ColumnIndex(name)
	require.GreaterOrEqual(t, idx, 0, "column %s", name)
	out := make([]string, tbl.Len())
	for i := range out {
		out[i] = tbl.Cell(i, idx)
	}
	return out
}

func TestRecommendTable(t *testing.T) {
	r, _ := newTestRecommender(t, Options{})
	in := mustTable(t, samplesCSV)

	out, err := r.RecommendTable(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, in.Len(), out.Len())
	assert.Equal(t,
		[]string{"hex_id", "mean_soc", "mean_ph", "mean_moisture", "mean_temperature",
			ColumnFeedstock, ColumnReason, ColumnSource, ColumnQuality},
		out.Columns)
	assert.Equal(t, []string{"h1", "h2", "h3", "h4", "h5", "h6"}, column(t, out, "hex_id"))
	assert.Equal(t,
		[]string{"Rice Husk", "Rice Husk", NoRecommendation, NoRecommendation, "Corn Straw", "Soybean Straw"},
		column(t, out, ColumnFeedstock))
	assert.Equal(t, []string{
		"Addresses 1/1 soil challenges: Low OC",
		"Addresses 1/3 soil challenges: High pH, High Temperature, Low Moisture",
		"No soil challenges identified - soil is in good condition",
		"No soil challenges identified - soil is in good condition",
		"Addresses 1/2 soil challenges: Low pH, Low Moisture",
		// Rice Husk lists High pH only as free text, so the primary tier scores zero.
		"Soil challenges identified: High pH. Using fallback dataset feedstock (limited challenge matching).",
	}, column(t, out, ColumnReason))
	assert.Equal(t,
		[]string{"experimental_data", "experimental_data", "general_default", "general_default", "experimental_data", "experimental_data"},
		column(t, out, ColumnSource))
	assert.Equal(t, []string{"high", "high", "low", "low", "high", "high"}, column(t, out, ColumnQuality))

	// The input batch is left untouched.
	assert.Len(t, in.Columns, 5)
}

func TestRecommendTableRerunOverwritesColumns(t *testing.T) {
	r, _ := newTestRecommender(t, Options{})
	first, err := r.RecommendTable(context.Background(), mustTable(t, samplesCSV))
	require.NoError(t, err)
	second, err := r.RecommendTable(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecommendTableMissingRequiredColumn(t *testing.T) {
	r, logs := newTestRecommender(t, Options{})
	in := mustTable(t, "hex_id,mean_soc,mean_moisture\na,1,10\nb,5,60\n")

	out, err := r.RecommendTable(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	for _, feedstock := range column(t, out, ColumnFeedstock) {
		assert.Equal(t, InsufficientData, feedstock)
	}
	for _, reason := range column(t, out, ColumnReason) {
		assert.Equal(t, "Missing SOC or pH data for challenge identification", reason)
	}
	assert.Equal(t, []string{"general_default", "general_default"}, column(t, out, ColumnSource))
	assert.Equal(t, []string{"low", "low"}, column(t, out, ColumnQuality))
	assert.Equal(t, 1, logs.FilterMessage("missing required columns (SOC or pH)").Len())
}

func TestRecommendTableZeroRows(t *testing.T) {
	r, _ := newTestRecommender(t, Options{})
	for _, csv := range []string{
		"hex_id,mean_soc,mean_ph\n",
		"hex_id\n",
	} {
		out, err := r.RecommendTable(context.Background(), mustTable(t, csv))
		require.NoError(t, err)
		assert.Equal(t, 0, out.Len())
		assert.Contains(t, out.Columns, ColumnFeedstock)
		assert.Contains(t, out.Columns, ColumnQuality)
	}

	out, err := r.RecommendTable(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestRecommendTableBadExplicitColumnFallsBack(t *testing.T) {
	r, logs := newTestRecommender(t, Options{Columns: SampleColumns{SOC: "#42"}})
	out, err := r.RecommendTable(context.Background(), mustTable(t, samplesCSV))
	require.NoError(t, err)
	assert.Equal(t, "Rice Husk", column(t, out, ColumnFeedstock)[0])
	assert.Equal(t, 1, logs.FilterMessage("configured sample column unusable, falling back to auto-detection").Len())
}

func TestRecommendTableParallelMatchesSequential(t *testing.T) {
	defer goleak.VerifyNone(t)

	var b strings.Builder
	b.WriteString("hex_id,mean_soc,mean_ph,mean_moisture,mean_temperature\n")
	for i := 0; i < 257; i++ {
		fmt.Fprintf(&b, "h%d,%.1f,%.1f,%d,%d\n", i, float64(i%5), 3.5+float64(i%7), 10+i%60, 15+i%25)
	}
	in := mustTable(t, b.String())

	seq, _ := newTestRecommender(t, Options{Workers: 1})
	par, _ := newTestRecommender(t, Options{Workers: 8})

	want, err := seq.RecommendTable(context.Background(), in)
	require.NoError(t, err)
	got, err := par.RecommendTable(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecommendTableCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, _ := newTestRecommender(t, Options{Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.RecommendTable(ctx, mustTable(t, samplesCSV))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommendSampleDefaults(t *testing.T) {
	r, _ := newTestRecommender(t, Options{})
	res := r.RecommendSample(Measurements{SOC: Float(3), PH: Float(7)})
	assert.Equal(t, NoRecommendation, res.Feedstock)

	hot, _ := newTestRecommender(t, Options{DefaultTemperature: Float(35)})
	res = hot.RecommendSample(Measurements{SOC: Float(3), PH: Float(7)})
	assert.Equal(t, "Rice Husk", res.Feedstock)
	assert.Equal(t, "Addresses 1/1 soil challenges: High Temperature", res.Reason)

	// An explicit zero fill value is kept rather than replaced by the default.
	dry, _ := newTestRecommender(t, Options{DefaultMoisture: Float(0)})
	res = dry.RecommendSample(Measurements{SOC: Float(3), PH: Float(7)})
	assert.Equal(t, "Soybean Straw", res.Feedstock)
	assert.Equal(t,
		"Soil challenges identified: Low Moisture. Using fallback dataset feedstock (limited challenge matching).",
		res.Reason)
}

func TestRecommenderWithoutReferences(t *testing.T) {
	r := NewRecommender(nil, Options{}, nil)
	out, err := r.RecommendTable(context.Background(), mustTable(t, samplesCSV))
	require.NoError(t, err)
	assert.Equal(t,
		"Soil challenges identified: Low OC. Pyrolysis data not available for recommendations.",
		column(t, out, ColumnReason)[0])
}

func TestSummarize(t *testing.T) {
	got := Summarize([]Result{
		{Feedstock: "Rice Husk"}, {Feedstock: "Corn Straw"}, {Feedstock: "Rice Husk"},
		{Feedstock: "Corn cob"}, {Feedstock: "Corn Straw"},
	})
	assert.Equal(t, []FeedstockCount{
		{Feedstock: "Corn Straw", Count: 2},
		{Feedstock: "Rice Husk", Count: 2},
		{Feedstock: "Corn cob", Count: 1},
	}, got)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	cfg.Columns.PH = "acidity"
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, "acidity", opts.Columns.PH)
	assert.Equal(t, Float(DefaultMoisture), opts.DefaultMoisture)
	assert.Equal(t, Float(DefaultTemperature), opts.DefaultTemperature)

	cfg.Defaults.Moisture = Float(0)
	opts = OptionsFromConfig(cfg)
	require.NotNil(t, opts.DefaultMoisture)
	assert.Equal(t, 0.0, *opts.DefaultMoisture)
	// The options own their copy.
	*cfg.Defaults.Moisture = 10
	assert.Equal(t, 0.0, *opts.DefaultMoisture)
}
