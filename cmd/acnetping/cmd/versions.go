package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fnal-controls/acnet-go/level2"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <node>",
	Short: "Print a node's ACNET version components",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		versions, err := level2.GetVersions(ctx, conn, args[0])
		if err != nil {
			return fmt.Errorf("get versions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], strings.Join(versions[:], ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}
