package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fnal-controls/acnet-go/level2"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping <node>",
	Short: "Ping a node's ACNET service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if level2.Ping(ctx, conn, args[0]) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: alive\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no response\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
