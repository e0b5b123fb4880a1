package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fnal-controls/acnet-go/level2"
	"github.com/spf13/cobra"
)

var tasksResetFlag bool

var tasksCmd = &cobra.Command{
	Use:   "tasks <node>",
	Short: "List running tasks and their traffic counters on a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		infos, err := level2.GetTaskInfo(ctx, conn, args[0], tasksResetFlag)
		if err != nil {
			return fmt.Errorf("get task info: %w", err)
		}

		ids := make([]int, 0, len(infos))
		for id := range infos {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)

		for _, id := range ids {
			info := infos[uint16(id)]
			fmt.Fprintf(cmd.OutOrStdout(), "%5d  %-8s usm %d/%d  req %d/%d  rpy %d/%d\n",
				id, info.Handle, info.UsmXmt, info.UsmRcv, info.ReqXmt, info.ReqRcv, info.RpyXmt, info.RpyRcv)
		}
		return nil
	},
}

func init() {
	tasksCmd.Flags().BoolVar(&tasksResetFlag, "reset", false, "zero the gateway's counters after reporting them")
	rootCmd.AddCommand(tasksCmd)
}
