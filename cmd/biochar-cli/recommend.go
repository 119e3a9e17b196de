package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/biochar/feedstock"
)

type recommendOptions struct {
	inputPath  string
	outputPath string
	outputDir  string
	sqliteOut  string
	sqliteTbl  string
	columns    feedstock.SampleColumns
	stdout     bool
}

func newRecommendCmd() *cobra.Command {
	var opts recommendOptions
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Append feedstock recommendations to a soil sample batch",
		Example: `  biochar-cli recommend --input hexes.csv --output hexes_biochar.csv
  biochar-cli recommend --input hexes.tsv --ph-column "#3" --sqlite-out results.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.inputPath = strings.TrimSpace(opts.inputPath)
			if opts.inputPath == "" {
				return errors.New("missing required --input file")
			}
			return runRecommend(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.inputPath, "input", "", "CSV/TSV file of soil samples")
	flags.StringVar(&opts.outputPath, "output", "", "CSV file to write results (default uses --output-dir/recommendations_*.csv)")
	flags.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	flags.StringVar(&opts.sqliteOut, "sqlite-out", "", "Also write the augmented batch to this SQLite database")
	flags.StringVar(&opts.sqliteTbl, "sqlite-table", "biochar_recommendations", "Table name used with --sqlite-out")
	flags.StringVar(&opts.columns.SOC, "soc-column", "", "Column name or #index for soil organic carbon (%)")
	flags.StringVar(&opts.columns.PH, "ph-column", "", "Column name or #index for soil pH")
	flags.StringVar(&opts.columns.Moisture, "moisture-column", "", "Column name or #index for soil moisture (%)")
	flags.StringVar(&opts.columns.Temperature, "temperature-column", "", "Column name or #index for soil temperature (°C)")
	flags.BoolVar(&opts.stdout, "stdout", false, "Print a summary of the recommendations to STDOUT")
	return cmd
}

func runRecommend(cmd *cobra.Command, opts recommendOptions) error {
	ctx := cmd.Context()
	runLog := logger.With(zap.String("run_id", uuid.NewString()))

	batch, err := feedstock.ReadTable(opts.inputPath)
	if err != nil {
		return fmt.Errorf("read soil samples: %w", err)
	}

	recOpts := feedstock.OptionsFromConfig(cfg)
	recOpts.Columns = mergeColumns(cfg.Columns, opts.columns)
	refs := loadReferences(ctx)
	recommender := feedstock.NewRecommender(refs, recOpts, runLog)

	start := time.Now()
	out, err := recommender.RecommendTable(ctx, batch)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	runLog.Info("batch scored",
		zap.Int("rows", out.Len()),
		zap.Duration("elapsed", time.Since(start)))

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if err := feedstock.WriteTable(outputPath, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recommendations saved to %s\n", outputPath)

	if opts.sqliteOut != "" {
		if err := feedstock.WriteSQLTable(ctx, opts.sqliteOut, opts.sqliteTbl, out); err != nil {
			return fmt.Errorf("write sqlite: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recommendations stored in %s (%s)\n", opts.sqliteOut, opts.sqliteTbl)
	}

	if opts.stdout {
		printSummary(cmd, out)
	}
	return nil
}

func mergeColumns(base, flags feedstock.SampleColumns) feedstock.SampleColumns {
	if flags.SOC != "" {
		base.SOC = flags.SOC
	}
	if flags.PH != "" {
		base.PH = flags.PH
	}
	if flags.Moisture != "" {
		base.Moisture = flags.Moisture
	}
	if flags.Temperature != "" {
		base.Temperature = flags.Temperature
	}
	return base
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("recommendations_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func printSummary(cmd *cobra.Command, out *feedstock.Table) {
	col := out.ColumnIndex(feedstock.ColumnFeedstock)
	results := make([]feedstock.Result, out.Len())
	for i := range results {
		results[i].Feedstock = out.Cell(i, col)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "==== Recommendation summary ====")
	summary := feedstock.Summarize(results)
	if len(summary) == 0 {
		fmt.Fprintln(w, "    (no rows)")
		return
	}
	for _, line := range summary {
		fmt.Fprintf(w, "    %s: %d locations\n", line.Feedstock, line.Count)
	}
}
