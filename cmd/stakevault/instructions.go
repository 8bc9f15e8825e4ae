package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stakeVault/internal/chain"
	"stakeVault/internal/host"
)

// buildFunc turns a command's flags into an instruction.
type buildFunc func(cmd *cobra.Command, rt *runtime) (host.Instruction, error)

func instructionCommand(use, short string, build buildFunc) *cobra.Command {
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

			ins, err := build(cmd, rt)
			if err != nil {
				return err
			}
			receipt, err := rt.submit(ctx, ins)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), receipt)
		},
	}
}

func instructionCommands() []*cobra.Command {
	initCmd := instructionCommand("init", "Initialize the pool with the signer as authority", func(_ *cobra.Command, rt *runtime) (host.Instruction, error) {
		if rt.cfg.Token == "" {
			return host.Instruction{}, fmt.Errorf("--token or VAULT_TOKEN is required")
		}
		token, err := chain.ParseAddress(rt.cfg.Token)
		if err != nil {
			return host.Instruction{}, fmt.Errorf("parse token: %w", err)
		}
		rates := rt.cfg.Rates
		return host.Instruction{Op: host.OpInitialize, Token: &token, Rates: &rates}, nil
	})
	initCmd.Flags().String("token", "", "staked token address")

	stakeCmd := instructionCommand("stake", "Lock tokens into a new position", func(cmd *cobra.Command, _ *runtime) (host.Instruction, error) {
		amount, _ := cmd.Flags().GetUint64("amount")
		days, _ := cmd.Flags().GetUint16("days")
		return host.Instruction{Op: host.OpStake, Amount: amount, LockDays: days}, nil
	})
	stakeCmd.Flags().Uint64("amount", 0, "amount in smallest units")
	stakeCmd.Flags().Uint16("days", 30, "lock period in days (30, 60, 90)")

	claimCmd := instructionCommand("claim", "Claim accrued rewards of a position", positionInstruction(host.OpClaimRewards))
	claimCmd.Flags().Uint64("position", 0, "position id")

	unstakeCmd := instructionCommand("unstake", "Close an unlocked position", positionInstruction(host.OpUnstake))
	unstakeCmd.Flags().Uint64("position", 0, "position id")

	mintCmd := instructionCommand("mint-access", "Mint an access record for the signer", ownerInstruction(host.OpMintAccess))
	mintCmd.Flags().String("owner", "", "holder address (defaults to the signer)")

	verifyCmd := instructionCommand("verify-access", "Re-derive a holder's tier and refresh its record", ownerInstruction(host.OpVerifyAccess))
	verifyCmd.Flags().String("owner", "", "holder address (defaults to the signer)")

	upgradeCmd := instructionCommand("upgrade-tier", "Raise the signer's stored tier", ownerInstruction(host.OpUpgradeTier))
	upgradeCmd.Flags().String("owner", "", "holder address (defaults to the signer)")

	pauseCmd := instructionCommand("pause", "Pause or resume new stakes or access minting", func(cmd *cobra.Command, _ *runtime) (host.Instruction, error) {
		resume, _ := cmd.Flags().GetBool("resume")
		access, _ := cmd.Flags().GetBool("access")
		paused := !resume
		op := host.OpSetPaused
		if access {
			op = host.OpSetAccessPaused
		}
		return host.Instruction{Op: op, Paused: &paused}, nil
	})
	pauseCmd.Flags().Bool("resume", false, "resume instead of pausing")
	pauseCmd.Flags().Bool("access", false, "pause mint-access and upgrade-tier instead of staking")

	ratesCmd := instructionCommand("set-rates", "Replace the rate table for new positions", func(_ *cobra.Command, rt *runtime) (host.Instruction, error) {
		rates := rt.cfg.Rates
		return host.Instruction{Op: host.OpUpdateRates, Rates: &rates}, nil
	})

	fundCmd := instructionCommand("fund", "Move authority tokens into the reward reserve", func(cmd *cobra.Command, _ *runtime) (host.Instruction, error) {
		amount, _ := cmd.Flags().GetUint64("amount")
		return host.Instruction{Op: host.OpFundRewards, Amount: amount}, nil
	})
	fundCmd.Flags().Uint64("amount", 0, "amount in smallest units")

	return []*cobra.Command{initCmd, stakeCmd, claimCmd, unstakeCmd, mintCmd, verifyCmd, upgradeCmd, pauseCmd, ratesCmd, fundCmd}
}

func positionInstruction(op host.Op) buildFunc {
	return func(cmd *cobra.Command, _ *runtime) (host.Instruction, error) {
		id, _ := cmd.Flags().GetUint64("position")
		return host.Instruction{Op: op, PositionID: id}, nil
	}
}

func ownerInstruction(op host.Op) buildFunc {
	return func(cmd *cobra.Command, rt *runtime) (host.Instruction, error) {
		owner, err := rt.addressFlag(cmd, "owner")
		if err != nil {
			return host.Instruction{}, err
		}
		return host.Instruction{Op: op, Owner: &owner}, nil
	}
}
