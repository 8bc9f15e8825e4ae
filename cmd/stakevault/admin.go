package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakeVault/internal/api"
	"stakeVault/internal/chain"
)

func adminCommands() []*cobra.Command {
	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Credit tokens to an account in the token book",
		RunE:  runDeposit,
	}
	depositCmd.Flags().String("account", "", "account address")
	depositCmd.Flags().Uint64("amount", 0, "amount in smallest units")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema",
		RunE:  runMigrate,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")

	return []*cobra.Command{depositCmd, migrateCmd, serveCmd}
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	value, _ := cmd.Flags().GetString("account")
	account, err := chain.ParseAddress(value)
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")

	balance, err := rt.exec.Credit(ctx, account, amount)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"account": account,
		"balance": balance,
	})
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.pg == nil {
		return fmt.Errorf("migrate requires --store=postgres")
	}
	if err := rt.pg.Migrate(ctx); err != nil {
		return err
	}
	rt.logger.Info("schema applied")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	router := api.NewController(rt.exec, rt.registry, rt.logger).NewRouter()
	server := &http.Server{
		Addr:              rt.cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("api start",
			zap.String("listen", rt.cfg.Listen),
			zap.String("store", rt.cfg.Store),
			zap.String("balance_source", rt.cfg.BalanceSource),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rt.logger.Info("api shutdown")
	return server.Shutdown(shutdownCtx)
}
