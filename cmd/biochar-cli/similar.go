package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"yashubustudio/biochar/feedstock"
)

func newSimilarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "similar CROP [RESIDUE]",
		Short: "Find the reference feedstock closest to a crop residue",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			crop, residue := args[0], ""
			if len(args) > 1 {
				residue = args[1]
			}
			refs := loadReferences(cmd.Context())
			match, ok := refs.LookupCrop(loadResolver(), crop, residue)
			w := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(w, "No similar feedstock for %q\n", crop)
				return nil
			}
			fmt.Fprintf(w, "Feedstock:    %s\n", match.Feedstock)
			fmt.Fprintf(w, "Match:        %s\n", match.Type)
			if match.Group != "" {
				fmt.Fprintf(w, "Group:        %s\n", match.Group)
			}
			fmt.Fprintf(w, "Data source:  %s\n", match.Source)
			fmt.Fprintf(w, "Data quality: %s\n", match.Quality)
			if p := match.Profile; p != nil {
				fmt.Fprintf(w, "Tier:         %s\n", p.Tier)
				fmt.Fprintf(w, "Origin:       %s\n", p.Origin)
				keys := make([]string, 0, len(p.Properties))
				for k := range p.Properties {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(w, "  %-15s %.3f\n", k, p.Properties[k])
				}
			}
			return nil
		},
	}
}

func newChallengesCmd() *cobra.Command {
	var soc, ph, moisture, temperature float64
	cmd := &cobra.Command{
		Use:   "challenges",
		Short: "Identify soil challenges for one sample and recommend a feedstock",
		RunE: func(cmd *cobra.Command, args []string) error {
			var m feedstock.Measurements
			flags := cmd.Flags()
			if flags.Changed("soc") {
				m.SOC = feedstock.Float(soc)
			}
			if flags.Changed("ph") {
				m.PH = feedstock.Float(ph)
			}
			if flags.Changed("moisture") {
				m.Moisture = feedstock.Float(moisture)
			}
			if flags.Changed("temperature") {
				m.Temperature = feedstock.Float(temperature)
			}
			recommender := feedstock.NewRecommender(loadReferences(cmd.Context()), feedstock.OptionsFromConfig(cfg), logger)
			w := cmd.OutOrStdout()
			set := feedstock.IdentifyChallenges(m)
			if len(set) == 0 {
				fmt.Fprintln(w, "Challenges:   none")
			} else {
				fmt.Fprintf(w, "Challenges:   %s\n", set)
			}
			res := recommender.RecommendSample(m)
			fmt.Fprintf(w, "Feedstock:    %s\n", res.Feedstock)
			fmt.Fprintf(w, "Reason:       %s\n", res.Reason)
			fmt.Fprintf(w, "Data source:  %s\n", res.Source)
			fmt.Fprintf(w, "Data quality: %s\n", res.Quality)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.Float64Var(&soc, "soc", 0, "Soil organic carbon (%)")
	flags.Float64Var(&ph, "ph", 0, "Soil pH")
	flags.Float64Var(&moisture, "moisture", 0, "Soil moisture (%)")
	flags.Float64Var(&temperature, "temperature", 0, "Soil temperature (°C)")
	return cmd
}
