package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/config"
	"github.com/Mohsinsiddi/devfund/internal/rpc"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage and benchmark RPC endpoints",
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <network> <url>",
	Short: "Add a custom RPC URL, tried before the built-in ones",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := networkByName(args[0])
		if err != nil {
			return err
		}
		if err := cfg.AddRPC(c.Name, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Added RPC for %s: %s", c.Name, args[1])))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <network> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Removed RPC for %s: %s", args[0], args[1])))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list [network]",
	Short: "List the RPCs for a network in selection order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := networkArg(args)
		if err != nil {
			return err
		}
		custom := cfg.GetRPCs(c.Name)
		t := ui.NewTable(ui.Column{Title: "Source"}, ui.Column{Title: "URL"})
		for _, u := range rpcCandidates(c) {
			src := "built-in"
			if slices.Contains(custom, u) {
				src = "custom"
			}
			t.AddRow(ui.Meta(src), u)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.StyleTitle.Render(fmt.Sprintf("RPCs for %s", c.Label(cfg.NetworkMode))))
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("algorithm: "+cfg.RPCAlgorithm))
		return nil
	},
}

var rpcBenchmarkCmd = &cobra.Command{
	Use:   "benchmark [network]",
	Short: "Probe every RPC for a network and show which one would be picked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := networkArg(args)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()

		spin := ui.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Benchmarking %s RPCs...", c.Label(cfg.NetworkMode)))
		spin.Start()
		results := rpc.ProbeAll(ctx, rpcCandidates(c))
		spin.Stop()

		winner, _ := rpc.Pick(results)
		t := ui.NewTable(
			ui.Column{Title: "RPC URL"},
			ui.Column{Title: "Latency"},
			ui.Column{Title: "Block"},
			ui.Column{Title: "Status"},
		)
		for _, r := range results {
			status := ui.Success("healthy")
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprint(r.BlockNumber)
			if !r.Healthy() {
				status, latency, block = ui.Err("down"), "-", "-"
			} else if winner != nil && winner.URL == r.URL {
				status = ui.Success("selected")
			}
			t.AddRow(r.URL, latency, block, status)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		if winner == nil {
			return rpc.ErrNoHealthyRPC
		}
		return nil
	},
}

func networkArg(args []string) (*chain.Chain, error) {
	if len(args) == 0 {
		return resolveChain()
	}
	return networkByName(args[0])
}

func init() {
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcBenchmarkCmd)
}
