// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/flyingrobots/warp-core/wsc"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot-file>",
		Short: "Print per-warp node/edge/attachment counts for a WSC snapshot container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			snapshots, err := wsc.Read(data)
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d warp(s)\n", len(snapshots))
			for _, s := range snapshots {
				nodes := s.Store.NodeIDs()
				edges := s.Store.AllEdges()
				attachments := s.Store.Attachments()
				fmt.Fprintf(out, "  warp %s: %d nodes, %d edges, %d attachments\n",
					s.WarpID, len(nodes), len(edges), len(attachments))
			}
			return nil
		},
	}
}
