package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexiquest/lexiquest/internal/devserver"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local stand-in for the scoring service",
	Long: `Serve the scoring API on the configured devserver address with in-memory
state. Point api_base_url at it to play without the real service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		addr := cfg.Devserver.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		content, err := loadContent(cfg.ContentPack)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "Scoring stand-in on http://%s (Ctrl+C to stop)\n", addr)
		srv := devserver.New(content, devserver.WithLogger(cfg.NewLogger()))
		return srv.Start(ctx, addr)
	},
}

func init() {
	devserverCmd.Flags().String("addr", "", "Listen address (overrides devserver.addr)")
}
