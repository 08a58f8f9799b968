package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx <hash>",
	Short: "Show a transaction receipt with decoded DevFund events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		hash := args[0]
		t, err := resolveTarget(ctx)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(cmd.ErrOrStderr(), "Fetching receipt...")
		spin.Start()
		receipt, err := t.client.TransactionReceipt(ctx, hash)
		spin.Stop()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if receipt == nil {
			fmt.Fprintln(out, ui.Warn("Transaction is pending or unknown on "+t.label()))
			return nil
		}

		status := ui.Success("success")
		if receipt.Status == 0 {
			status = ui.Err("reverted")
		}
		pairs := [][2]string{
			{"Hash", ui.Addr(hash)},
			{"Status", status},
			{"Block", fmt.Sprint(receipt.BlockNumber)},
			{"Gas used", fmt.Sprint(receipt.GasUsed)},
			{"Logs", fmt.Sprint(len(receipt.Logs))},
		}
		if link := t.chain.TxURL(cfg.NetworkMode, hash); link != "" {
			pairs = append(pairs, [2]string{"Explorer", ui.Meta(link)})
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Transaction · "+t.label(), pairs))

		for _, l := range receipt.Logs {
			ev, err := decodeReceiptLog(l)
			if err != nil {
				fmt.Fprintln(out, "  "+ui.Meta(fmt.Sprintf("log %d from %s (not a DevFund event)", l.Index(), ui.TruncateAddr(l.Address))))
				continue
			}
			fmt.Fprintln(out, "  "+formatEvent(ev))
		}
		return nil
	},
}
