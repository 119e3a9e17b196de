package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"yashubustudio/biochar/feedstock"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the loaded pyrolysis reference data and its indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := loadReferences(cmd.Context())
			w := cmd.OutOrStdout()
			printDataset(w, "primary", refs.Primary)
			printDataset(w, "fallback", refs.Fallback)
			return nil
		},
	}
}

func printDataset(w io.Writer, tier string, d *feedstock.Dataset) {
	fmt.Fprintf(w, "==== %s ====\n", tier)
	if d == nil {
		fmt.Fprintln(w, "    not available")
		return
	}
	fmt.Fprintf(w, "    rows: %d, feedstocks: %d\n", d.Len(), len(d.Types()))
	fmt.Fprintln(w, "    properties:")
	props := d.Properties()
	for _, prop := range feedstock.PropertyColumns {
		fmt.Fprintf(w, "      %-15s %s\n", prop.Key, formatStats(props[prop.Key]))
	}
	fmt.Fprintln(w, "    challenges:")
	challenges := d.Challenges()
	names := make([]string, 0, len(challenges))
	for name := range challenges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		labels := challenges[name]
		if len(labels) == 0 {
			fmt.Fprintf(w, "      %s: -\n", name)
			continue
		}
		fmt.Fprintf(w, "      %s: %s\n", name, strings.Join(labels, "; "))
	}
}

func formatStats(st feedstock.Stats) string {
	if st.Count == 0 || math.IsNaN(st.Mean) {
		return fmt.Sprintf("n=0 (%s)", st.Column)
	}
	return fmt.Sprintf("n=%d mean=%.3f min=%.3f max=%.3f (%s)", st.Count, st.Mean, st.Min, st.Max, st.Column)
}
