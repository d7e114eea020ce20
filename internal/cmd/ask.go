package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/stockroom-app/server/internal/agent/budget"
	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/config"
	"github.com/stockroom-app/server/internal/inventory"
	logx "github.com/stockroom-app/server/pkg/logger"
)

type askFlags struct {
	fixture   string
	question  string
	household string
	user      string
}

func newAskCmd() *cobra.Command {
	var f askFlags
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer one question against a YAML household fixture",
		Example: `  stockroom ask --fixture testdata/households.yaml \
    --household 5b0c6d3e-8f35-4b8e-9d51-1f8f0a2c9e11 --user user-1 \
    --question "Do I have batteries?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if verbose {
				logx.Init(logx.LoggerOpts{Environment: cfg.ResolveEnvironment(), Output: cmd.ErrOrStderr()})
			} else {
				logx.Disable()
			}

			out, err := ask(cmd.Context(), cfg, f)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&f.fixture, "fixture", "", "YAML file with household fixtures")
	cmd.Flags().StringVarP(&f.question, "question", "q", "", "question to ask")
	cmd.Flags().StringVar(&f.household, "household", "", "household id")
	cmd.Flags().StringVar(&f.user, "user", "", "user id, must be a member of the household")
	_ = cmd.MarkFlagRequired("fixture")
	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("household")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func ask(ctx context.Context, cfg *config.AppConfig, f askFlags) (*model.Result, error) {
	store, err := inventory.LoadFixtures(f.fixture)
	if err != nil {
		return nil, err
	}
	svc, err := newService(ctx, cfg, store, budget.NewMemoryLedger())
	if err != nil {
		return nil, err
	}
	return svc.Ask(ctx, model.Question{Text: f.question, HouseholdID: f.household, UserID: f.user})
}
