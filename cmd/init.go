package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	Long: `Create the config directory and write config.json from the existing
file (or the defaults) plus any --network, --testnet or --mainnet flag.
DEVFUND_* environment variables stay per-run and are not written.

Examples:
  devfund init
  devfund init --network bnb --testnet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := resolveChain(); err != nil {
			return err
		}
		if flagNetwork != "" {
			cfg.Persist("network")
		}
		if testnet || mainnet {
			cfg.Persist("network_mode")
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.KeyValueBlock("devfund configured", [][2]string{
			{"Directory", cfg.Dir()},
			{"Network", fmt.Sprintf("%s (%s)", cfg.Network, cfg.NetworkMode)},
			{"RPC selection", cfg.RPCAlgorithm},
		}))
		fmt.Fprintln(out, ui.Hint("Next: devfund wallet import <name>, then devfund info --check"))
		return nil
	},
}
