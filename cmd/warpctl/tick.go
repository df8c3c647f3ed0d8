// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/flyingrobots/warp-core/config"
	"github.com/flyingrobots/warp-core/demo"
	"github.com/flyingrobots/warp-core/engine"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/flyingrobots/warp-core/wsc"
	"github.com/spf13/cobra"
)

func tickCmd() *cobra.Command {
	var (
		warpIndex int
		rootHex   string
		ruleName  string
		scopeHex  string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "tick <snapshot-file>",
		Short: "Apply one rule at one scope and commit a single tick against a WSC snapshot",
		Long: `tick loads one warp out of a WSC snapshot container, registers the
built-in demo rule set, applies the named rule at the given scope node, and
commits. With --out it writes the resulting warp back out as a new
single-warp container; without it, it only reports the new commit hash.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			snapshots, err := wsc.Read(data)
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			if warpIndex < 0 || warpIndex >= len(snapshots) {
				return fmt.Errorf("warp index %d out of range (container has %d warp(s))", warpIndex, len(snapshots))
			}
			snap := snapshots[warpIndex]

			root, err := parseNodeID(rootHex)
			if err != nil {
				return fmt.Errorf("--root: %w", err)
			}
			scope, err := parseNodeID(scopeHex)
			if err != nil {
				return fmt.Errorf("--scope: %w", err)
			}

			params := config.Default()
			e := engine.New(snap.Store, root, engine.Config{
				NumShards:  params.NumShards,
				MaxWorkers: params.MaxWorkers,
				Retention:  params.WorldlineRetention(),
			})
			for _, r := range []*rule.Rule{demo.NewMotionRule(), demo.NewPortRule(), demo.NewDispatchInboxRule()} {
				if err := e.RegisterRule(r); err != nil {
					return fmt.Errorf("register rule %s: %w", r.Name, err)
				}
			}

			tx := e.Begin()
			result, err := e.Apply(tx, ruleName, scope)
			if err != nil {
				return fmt.Errorf("apply %s: %w", ruleName, err)
			}
			if result == engine.NoMatch {
				fmt.Fprintf(cmd.OutOrStdout(), "rule %s did not match at %s\n", ruleName, scope)
				return nil
			}

			snapOut, err := e.Commit(tx)
			if err != nil {
				return fmt.Errorf("commit: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "committed: hash=%s parent=%s\n", snapOut.Hash, snapOut.Parent)

			if outPath != "" {
				out, err := wsc.Write([]wsc.WarpSnapshot{{WarpID: snap.WarpID, Store: e.Store()}})
				if err != nil {
					return fmt.Errorf("serialize result: %w", err)
				}
				if err := os.WriteFile(outPath, out, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&warpIndex, "warp-index", 0, "index of the warp within the container to operate on")
	cmd.Flags().StringVar(&rootHex, "root", "", "hex-encoded NodeId of the warp's snapshot root (required)")
	cmd.Flags().StringVar(&ruleName, "rule", "", "registered rule name to apply (required)")
	cmd.Flags().StringVar(&scopeHex, "scope", "", "hex-encoded NodeId to anchor the rule at (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the resulting single-warp container to")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("rule")
	_ = cmd.MarkFlagRequired("scope")

	return cmd
}

func parseNodeID(s string) (ids.NodeId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ids.NodeId{}, err
	}
	if len(b) != 32 {
		return ids.NodeId{}, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	var id ids.NodeId
	copy(id[:], b)
	return id, nil
}
