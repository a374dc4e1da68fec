package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanshika/peoplegraph/internal/app"
	"github.com/vanshika/peoplegraph/internal/config"
	"github.com/vanshika/peoplegraph/internal/logging"
	"github.com/vanshika/peoplegraph/internal/service"
)

type rootOptions struct {
	datasetPath string
	k           int
	cap         int
}

func newRootCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest people a user may know",
		Long: `Rank friend-of-friend candidates with the Adamic-Adar index.

The friendship graph comes from the configured source (SOURCE_KIND) unless
--dataset points at a JSON, YAML or CSV file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.datasetPath, "dataset", "", "read friendships from this file instead of the configured source")
	root.PersistentFlags().IntVar(&opts.k, "k", 0, "number of recommendations (0 uses the configured default)")
	root.PersistentFlags().IntVar(&opts.cap, "cap", 0, "maximum shared friends listed in explanations (0 uses the configured default)")

	root.AddCommand(newUserCmd(opts, loadConfig))
	root.AddCommand(newAllCmd(opts, loadConfig))
	return root
}

func newUserCmd(opts *rootOptions, loadConfig func() (config.Config, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "user <id>",
		Short: "Recommend friends for one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd, opts, loadConfig)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.Recommend(cmd.Context(), service.RecommendParams{
				UserID:         args[0],
				K:              opts.k,
				ExplanationCap: opts.cap,
			})
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(toOutput(res))
			}
			return writeTable(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newAllCmd(opts *rootOptions, loadConfig func() (config.Config, error)) *cobra.Command {
	var (
		workers    int
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Recommend friends for every user, one JSON object per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService(cmd, opts, loadConfig)
			if err != nil {
				return err
			}
			defer closeFn()

			users, err := allUserIDs(cmd.Context(), svc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outputPath, err)
				}
				defer f.Close()
				out = f
			}

			start := time.Now()
			results, runErr := service.NewBatchRecommender(svc, workers).Run(cmd.Context(), users, opts.k, opts.cap)
			if err := writeLines(out, results); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "scored %d users in %s\n", len(users), time.Since(start).Round(time.Millisecond))
			return runErr
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent workers")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write JSON lines to this file instead of stdout")
	return cmd
}

func openService(cmd *cobra.Command, opts *rootOptions, loadConfig func() (config.Config, error)) (*service.RecommendationService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if opts.datasetPath != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = opts.datasetPath
		cfg.Source.Fallback = false
	}
	// Each user is queried once per run.
	cfg.Recommend.CacheSize = 0

	logger := logging.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())
	ctx := cmd.Context()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}
	if _, err := a.Service.Reload(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("load graph: %w", err)
	}
	return a.Service, closeFn, nil
}

func allUserIDs(ctx context.Context, svc *service.RecommendationService) ([]string, error) {
	var ids []string
	for page := 1; ; page++ {
		res, err := svc.ListUsers(ctx, page, 200)
		if err != nil {
			return nil, err
		}
		for _, u := range res.Items {
			ids = append(ids, u.ID)
		}
		if page >= res.Pagination.TotalPages {
			return ids, nil
		}
	}
}

func writeLines(w io.Writer, results []service.Recommendations) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		if res.UserID == "" {
			continue
		}
		if err := enc.Encode(toOutput(res)); err != nil {
			return err
		}
	}
	return nil
}
