package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "List networks and choose the default",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the networks DevFund can be reached on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		t := ui.NewTable(
			ui.Column{Title: ""},
			ui.Column{Title: "Name"},
			ui.Column{Title: "Display"},
			ui.Column{Title: "Chain ID"},
			ui.Column{Title: "Testnet"},
			ui.Column{Title: "Currency"},
		)
		for _, c := range reg.All() {
			mark := ""
			if c.Name == cfg.Network {
				mark = ui.StyleSuccess.Render("●")
			}
			testnetID := "-"
			if c.TestnetChainID != 0 {
				testnetID = fmt.Sprintf("%d (%s)", c.TestnetChainID, c.TestnetName)
			}
			t.AddRow(mark, ui.Network(c.Name), c.DisplayName, fmt.Sprint(c.ChainID), testnetID, c.NativeCurrency)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		fmt.Fprintln(cmd.OutOrStdout(), ui.Meta(fmt.Sprintf("current: %s (%s)", cfg.Network, cfg.NetworkMode)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Long: `Set the default network and persist it to config.

Combined with --testnet or --mainnet the network mode is persisted too.

Examples:
  devfund network use bnb
  devfund network use bnb --testnet`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := networkByName(args[0])
		if err != nil {
			return err
		}
		if err := cfg.Set("network", c.Name); err != nil {
			return err
		}
		if testnet || mainnet {
			cfg.Persist("network_mode")
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default network set to %s (%s)", c.Label(cfg.NetworkMode), cfg.NetworkMode)))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
