package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fnal-controls/acnet-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	gatewayURL string
	verbose    bool

	conn *acnet.Connection
)

// rootCmd is the base command for acnetping.
var rootCmd = &cobra.Command{
	Use:   "acnetping",
	Short: "acnetping — Level-II diagnostics against an ACNET gateway",
	Long: `acnetping is a small operator CLI built on the acnet client
library. It exercises the Level-II sub-protocol (ping, version query,
task enumeration) against the gateway at --gateway.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log := zerolog.Nop()
		if verbose {
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		}
		conn = acnet.NewConnection(acnet.Config{URL: gatewayURL, Log: log})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := conn.Handle(ctx); err != nil {
			return fmt.Errorf("connect to gateway: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if conn != nil {
			conn.Close()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", acnet.DefaultURL, "ACNET gateway WebSocket URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log connection and frame activity to stderr")
}
