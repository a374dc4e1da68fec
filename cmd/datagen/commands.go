package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/peoplegraph/internal/dataset"
	"github.com/vanshika/peoplegraph/internal/domain"
)

func newRootCmd() *cobra.Command {
	cfg := dataset.DefaultConfig()
	var (
		karate bool
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "datagen",
		Short: "Generate a friendship dataset",
		Long: `Write a synthetic community graph, or the Zachary karate club, as JSON,
YAML or CSV. Without --output the dataset goes to stdout in --format.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.IntraChance = clampProbability(cfg.IntraChance)
			cfg.IsolatedChance = clampProbability(cfg.IsolatedChance)

			var sg domain.SocialGraph
			if karate {
				sg = dataset.KarateClub()
			} else {
				ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
				defer cancel()

				var err error
				sg, err = dataset.New(cfg).Generate(ctx)
				if err != nil {
					return fmt.Errorf("generation failed: %w", err)
				}
			}

			if output == "" {
				f, err := dataset.ParseFormat(format)
				if err != nil {
					return err
				}
				return dataset.Encode(cmd.OutOrStdout(), f, sg)
			}
			if err := dataset.Write(output, sg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Generated %d users and %d friendships into %s\n", len(sg.Users), len(sg.Friendships), output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&karate, "karate", false, "write the Zachary karate club instead of a synthetic graph")
	flags.StringVarP(&output, "output", "o", "", "output file; the extension selects json, yaml or csv")
	flags.StringVar(&format, "format", "json", "stdout format: json, yaml or csv")
	flags.StringVar(&cfg.Name, "name", cfg.Name, "dataset name")
	flags.IntVar(&cfg.NumUsers, "users", cfg.NumUsers, "number of users to generate")
	flags.IntVar(&cfg.Communities, "communities", cfg.Communities, "number of densely connected communities")
	flags.Float64Var(&cfg.IntraChance, "intra-chance", cfg.IntraChance, "probability that two members of a community are friends")
	flags.Float64Var(&cfg.CrossLinksPerUser, "cross-links", cfg.CrossLinksPerUser, "mean friendships per user across communities")
	flags.Float64Var(&cfg.IsolatedChance, "isolated-chance", cfg.IsolatedChance, "share of users without friends")
	flags.StringVar(&cfg.IDPrefix, "id-prefix", cfg.IDPrefix, "prefix for generated user ids")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for deterministic generation")
	return cmd
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
