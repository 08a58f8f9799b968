package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var (
	abiJSON      bool
	abiEvents    bool
	abiFunctions bool
	abiExportAll bool
)

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "List the DevFund ABI with selectors and topics",
	Long: `List every ABI entry of the DevFund contract with its canonical signature,
4-byte selector (functions) or topic hash (events) and state mutability.

Examples:
  devfund abi
  devfund abi --events
  devfund abi --json > devfund.abi.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		entries := abiEntries(contract.DevFund)

		if abiJSON {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		t := ui.NewTable(
			ui.Column{Title: "Kind"},
			ui.Column{Title: "Signature"},
			ui.Column{Title: "Selector / Topic"},
			ui.Column{Title: "Mutability"},
		)
		for _, e := range entries {
			id := ""
			switch e.Type {
			case contract.KindFunction:
				id = e.Selector()
			case contract.KindEvent:
				id = ui.TruncateAddr(e.Topic())
			}
			t.AddRow(e.Type, ui.Val(e.Signature()), id, ui.Mutability(e.StateMutability))
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d entries", len(entries))))
		return nil
	},
}

func abiEntries(d *contract.Descriptor) []contract.ABIEntry {
	switch {
	case abiEvents:
		return d.Events()
	case abiFunctions:
		return d.Functions()
	}
	return d.ABI()
}

var abiExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the descriptor document ({address, abi}) to a file or stdout",
	Long: `Write the descriptor in its export shape:

  {"address": {"token": "0x..."}, "abi": {"token": [...]}}

The address is the one resolved for the selected network. With --all the
other built-in interfaces (erc20) are included.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain()
		if err != nil {
			return err
		}
		addr, err := contractAddress(c)
		if err != nil {
			return err
		}

		bundle := contract.Bundle{contract.NewDescriptor(contract.DevFund.Name(), addr, contract.DevFund.ABI())}
		if abiExportAll {
			for _, b := range contract.AllBuiltins() {
				if b.ID != "devfund" {
					bundle = append(bundle, b.Descriptor())
				}
			}
		}
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return err
		}

		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Descriptor written to %s", args[0])))
		return nil
	},
}

var abiBuiltinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "List the contract interfaces compiled into devfund",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable(
			ui.Column{Title: "ID"},
			ui.Column{Title: "Name"},
			ui.Column{Title: "Entries"},
			ui.Column{Title: "Description"},
		)
		for _, b := range contract.AllBuiltins() {
			t.AddRow(ui.Val(b.ID), b.Name, fmt.Sprint(len(b.ABI)), ui.Meta(strings.TrimSpace(b.Description)))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func init() {
	abiCmd.Flags().BoolVar(&abiJSON, "json", false, "print the ABI array as JSON")
	abiCmd.Flags().BoolVar(&abiEvents, "events", false, "events only")
	abiCmd.Flags().BoolVar(&abiFunctions, "functions", false, "functions only")
	abiCmd.MarkFlagsMutuallyExclusive("events", "functions")
	abiExportCmd.Flags().BoolVar(&abiExportAll, "all", false, "include the other built-in interfaces")
	abiCmd.AddCommand(abiExportCmd, abiBuiltinsCmd)
}
