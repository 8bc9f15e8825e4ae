package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stakeVault/internal/model"
)

type queryFunc func(ctx context.Context, cmd *cobra.Command, rt *runtime) (interface{}, error)

func queryCommand(use, short string, query queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := openRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			out, err := query(ctx, cmd, rt)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func queryCommands() []*cobra.Command {
	poolCmd := queryCommand("pool", "Show the pool record", func(ctx context.Context, _ *cobra.Command, rt *runtime) (interface{}, error) {
		return rt.exec.Pool(ctx)
	})

	positionCmd := queryCommand("position", "Show the stake info of a position", func(ctx context.Context, cmd *cobra.Command, rt *runtime) (interface{}, error) {
		id, _ := cmd.Flags().GetUint64("id")
		return rt.exec.StakeInfo(ctx, id)
	})
	positionCmd.Flags().Uint64("id", 0, "position id")

	positionsCmd := queryCommand("positions", "List a holder's positions", func(ctx context.Context, cmd *cobra.Command, rt *runtime) (interface{}, error) {
		owner, err := rt.addressFlag(cmd, "owner")
		if err != nil {
			return nil, err
		}
		return rt.exec.Positions(ctx, owner)
	})
	positionsCmd.Flags().String("owner", "", "holder address (defaults to the signer)")

	accessCmd := queryCommand("access", "Show a holder's live tier and access record", func(ctx context.Context, cmd *cobra.Command, rt *runtime) (interface{}, error) {
		owner, err := rt.addressFlag(cmd, "owner")
		if err != nil {
			return nil, err
		}
		minTier, _ := cmd.Flags().GetString("min")
		if minTier == "" {
			return rt.exec.Access(ctx, owner)
		}
		var required model.Tier
		if err := required.UnmarshalText([]byte(minTier)); err != nil {
			return nil, err
		}
		return rt.exec.VerifyHolder(ctx, owner, required)
	})
	accessCmd.Flags().String("owner", "", "holder address (defaults to the signer)")
	accessCmd.Flags().String("min", "", "required tier (basic, pro, elite); reports whether the holder meets it")

	auditCmd := queryCommand("audit", "Check vault solvency against open positions", func(ctx context.Context, cmd *cobra.Command, rt *runtime) (interface{}, error) {
		report, err := rt.exec.Audit(ctx)
		if err != nil {
			return nil, err
		}
		if !report.Healthy() {
			_ = printJSON(cmd.OutOrStdout(), report)
			return nil, fmt.Errorf("audit failed: deficit %s", report.Deficit)
		}
		return report, nil
	})

	return []*cobra.Command{poolCmd, positionCmd, positionsCmd, accessCmd, auditCmd}
}
