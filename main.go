package main

import (
	"Go_Attach/config"
	"Go_Attach/internal/service"
	"Go_Attach/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "go_attach",
		Short:         "File attachments for JSON records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitConfig()
			utils.InitLogger(config.AppConfig.LogLevel)
		},
	}
	root.AddCommand(newServeCmd(), newConfigCmd(), newHeartbeatCmd(), newAccountCmd())
	return root
}

func fatal(err error) error {
	log := utils.Logger()
	log.Error().Err(err).Msg("command failed")
	return err
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, config.AppConfig)
			if err != nil {
				return fatal(err)
			}
			defer a.Close()

			srv := &http.Server{
				Addr:              config.AppConfig.HTTPAddr,
				Handler:           a.router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log := utils.Logger()
				log.Info().Str("addr", srv.Addr).Str("backend", a.store.Name()).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fatal(err)
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the attachment settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(config.AppConfig)
			if err != nil {
				return fatal(err)
			}
			storageCfg := config.NewStorageConfig(s.Backend())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend: %s\n", storageCfg.Kind)
			fmt.Fprintf(out, "extensions: %s\n", storageCfg.Extensions)
			fmt.Fprintf(out, "base_url: %s\n", s.BaseURL())
			for _, uri := range s.Resources() {
				fmt.Fprintf(out, "rule: %s\n", uri)
			}
			return nil
		},
	})
	return cmd
}

func newHeartbeatCmd() *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Run the health checks once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), config.AppConfig)
			if err != nil {
				return fatal(err)
			}
			defer a.Close()

			var report map[string]bool
			if fresh {
				report = a.heartbeat.Fresh(cmd.Context())
			} else {
				report = a.heartbeat.Report(cmd.Context())
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !service.Healthy(report) {
				return errors.New("heartbeat failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "bypass the cached report")
	return cmd
}

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account allowed to write",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), config.AppConfig)
			if err != nil {
				return fatal(err)
			}
			defer a.Close()

			account, err := a.accounts.Create(cmd.Context(), username, password)
			if err != nil {
				return fatal(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %q created\n", account.UserName)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "account name")
	create.Flags().StringVar(&password, "password", "", "account password")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")
	cmd.AddCommand(create)
	return cmd
}
