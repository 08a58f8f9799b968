package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <calldata>",
	Short: "Decode DevFund calldata into a function and arguments",
	Long: `Decode raw calldata (hex) sent to the DevFund contract. The selector is
matched against the DevFund ABI and the arguments are decoded with their
declared types. No RPC call is needed.

Examples:
  devfund decode 0x4e71d92d
  devfund decode 0xd855da2e000000000000000000000000...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hexutil.Decode(args[0])
		if err != nil {
			return fmt.Errorf("calldata must be 0x-prefixed hex: %w", err)
		}

		name, fields, err := contract.DevFund.DecodeCall(data)
		if err != nil {
			return err
		}
		fn, err := contract.DevFund.Function(name)
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Function", ui.Val(fn.Signature())},
			{"Selector", hexutil.Encode(data[:4])},
			{"Mutability", ui.Mutability(fn.StateMutability)},
		}
		for i, f := range fields {
			label := f.Name
			if label == "" {
				label = fmt.Sprintf("arg%d", i)
			}
			pairs = append(pairs, [2]string{fmt.Sprintf("%s (%s)", label, f.Type), f.String()})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Decoded Calldata", pairs))
		return nil
	},
}
