package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var encodeRaw bool

var encodeCmd = &cobra.Command{
	Use:   "encode <function> [args...]",
	Short: "ABI-encode a DevFund call without sending it",
	Long: `Build the calldata for a DevFund function: the 4-byte selector followed
by the ABI-encoded arguments. No RPC call is made.

Use "constructor" as the function name to encode deployment arguments.

Array arguments take "a,b,c" or a JSON array.

Examples:
  devfund encode claim
  devfund encode updateDeveloper 0xDev 1000000000000000000
  devfund encode addDevelopers 0xA,0xB 100,200
  devfund encode constructor 0xToken --raw`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fn, fnArgs := args[0], args[1:]

		var data []byte
		var sig string
		var err error
		if fn == "constructor" {
			data, err = contract.DevFund.PackConstructor(fnArgs...)
			if e, ok := contract.DevFund.Constructor(); ok {
				sig = "constructor" + e.Signature()
			}
		} else {
			var e contract.ABIEntry
			if e, err = contract.DevFund.Function(fn); err != nil {
				return err
			}
			sig = e.Signature()
			data, err = contract.DevFund.PackCall(fn, fnArgs...)
		}
		if err != nil {
			return err
		}

		encoded := hexutil.Encode(data)
		if encodeRaw {
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		}
		pairs := [][2]string{{"Function", ui.Val(sig)}}
		if fn != "constructor" {
			pairs = append(pairs, [2]string{"Selector", encoded[:10]})
		}
		pairs = append(pairs,
			[2]string{"Length", fmt.Sprintf("%d bytes", len(data))},
			[2]string{"Calldata", encoded},
		)
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Encoded Call", pairs))
		return nil
	},
}

func init() {
	encodeCmd.Flags().BoolVar(&encodeRaw, "raw", false, "print only the hex calldata")
}
