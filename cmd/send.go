package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	sendWallet string
	sendYes    bool
	sendNoWait bool
	sendForce  bool
)

// Owner-only calls that hand over the contract or move its funds.
var dangerousFunctions = map[string]string{
	"transferOwnership": "hands the fund to a new owner",
	"withdrawAnyToken":  "sweeps the token's whole balance to the owner",
}

var sendCmd = &cobra.Command{
	Use:   "send [function] [args...]",
	Short: "Send a DevFund write transaction",
	Long: `Sign and broadcast a state-changing DevFund call from a signing wallet.

The call is simulated first; a revert aborts with the contract's reason
unless --force is given. A preview is shown and confirmation requested
(--yes skips it). The command then waits for the receipt.

Without a function name an interactive picker lists the write functions
and prompts for each argument.

Examples:
  devfund send updateDeveloper 0xDev 1000000000000000000
  devfund send addDevelopers 0xA,0xB 100,200 --wallet manager
  devfund send deleteDeveloper 0xDev --yes --testnet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		fn, fnArgs, err := chooseFunction(in, cmd.OutOrStdout(), args, contract.DevFund.WriteFunctions(), "Select a write function")
		if err != nil {
			return err
		}
		if fn == "" {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		return sendTx(cmd, in, fn, fnArgs)
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim your monthly allowance",
	Long: `Send claim() from a signing wallet. Same as: devfund send claim

Examples:
  devfund claim
  devfund claim --wallet dev --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(cmd, bufio.NewReader(cmd.InOrStdin()), "claim", nil)
	},
}

func sendTx(cmd *cobra.Command, in io.Reader, fn string, fnArgs []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	entry, err := contract.DevFund.Function(fn)
	if err != nil {
		return err
	}
	if !entry.IsWriteFunction() {
		return fmt.Errorf("%w: %q; use `devfund call %s`", contract.ErrNotWriteFunction, fn, fn)
	}
	// Fail on bad arguments before touching the network or the keychain.
	if _, err := contract.DevFund.PackCall(fn, fnArgs...); err != nil {
		return err
	}

	signer, err := resolveSigner(newWalletManager(), sendWallet)
	if err != nil {
		return err
	}
	t, err := resolveTarget(ctx)
	if err != nil {
		return err
	}

	chainID, err := t.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("getting chain id: %w", err)
	}
	if want := t.chain.ID(cfg.NetworkMode); want != 0 && chainID.Cmp(big.NewInt(want)) != 0 {
		fmt.Fprintln(out, ui.Warn(fmt.Sprintf("RPC reports chain %s, %s is chain %d", chainID, t.label(), want)))
	}

	sender := contract.NewSender(t.client, contract.DevFund, t.address, signer.ForFund(t.address), chainID)
	sender.SetGasFallback(cfg.GasLimitFallback)

	spin := ui.NewSpinner(cmd.ErrOrStderr(), "Simulating...")
	spin.Start()
	ok, reason, err := sender.Simulate(ctx, fn, fnArgs...)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	if !ok {
		if reason == "" {
			reason = "execution reverted"
		}
		if !sendForce {
			return fmt.Errorf("%s would revert: %s (use --force to send anyway)", fn, reason)
		}
		fmt.Fprintln(out, ui.Warn(fmt.Sprintf("simulation reverted: %s", reason)))
	}

	pairs := [][2]string{
		{"Function", ui.Val(entry.Signature())},
		{"From", ui.Addr(signer.Address())},
		{"Contract", ui.Addr(t.address)},
		{"Network", fmt.Sprintf("%s (chain %s)", t.label(), chainID)},
	}
	for i, a := range fnArgs {
		label := entry.Inputs[i].Name
		if label == "" {
			label = fmt.Sprintf("arg%d", i)
		}
		pairs = append(pairs, [2]string{label, a})
	}
	danger, isDangerous := dangerousFunctions[fn]
	if isDangerous {
		pairs = append(pairs, [2]string{"Warning", ui.Danger(danger)})
	}
	fmt.Fprintln(out, ui.KeyValueBlock("Transaction Preview", pairs))

	if !sendYes {
		var confirmed bool
		if isDangerous {
			confirmed = ui.ConfirmDanger(in, out, fmt.Sprintf("%s is irreversible. Broadcast?", fn))
		} else {
			confirmed = ui.Confirm(in, out, "Broadcast this transaction?")
		}
		if !confirmed {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
	}

	spin = ui.NewSpinner(cmd.ErrOrStderr(), "Broadcasting...")
	spin.Start()
	hash, err := sender.Send(ctx, fn, fnArgs...)
	spin.Stop()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ui.Success("Transaction sent"))
	fmt.Fprintln(out, "Hash: "+ui.Addr(hash))
	if link := t.chain.TxURL(cfg.NetworkMode, hash); link != "" {
		fmt.Fprintln(out, ui.Meta(link))
	}
	if sendNoWait {
		return nil
	}

	spin = ui.NewSpinner(cmd.ErrOrStderr(), "Waiting for confirmation...")
	spin.Start()
	receipt, err := t.client.WaitForReceipt(ctx, hash, cfg.Timeout())
	spin.Stop()
	if err != nil && !errors.Is(err, chain.ErrTxReverted) {
		return err
	}
	logging.L().WithFields(logrus.Fields{
		"tx":       hash,
		"block":    receipt.BlockNumber,
		"gas_used": receipt.GasUsed,
		"status":   receipt.Status,
	}).Info("transaction mined")
	if err != nil {
		return err
	}

	fmt.Fprintln(out, ui.Success(fmt.Sprintf("Confirmed in block %d (gas used %d)", receipt.BlockNumber, receipt.GasUsed)))
	for _, l := range receipt.Logs {
		ev, err := decodeReceiptLog(l)
		if err != nil {
			continue
		}
		fmt.Fprintln(out, "  "+formatEvent(ev))
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{sendCmd, claimCmd} {
		c.Flags().StringVarP(&sendWallet, "wallet", "w", "", "signing wallet (default: config)")
		c.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the confirmation prompt")
		c.Flags().BoolVar(&sendNoWait, "no-wait", false, "return after broadcasting")
		c.Flags().BoolVar(&sendForce, "force", false, "send even when simulation reverts")
	}
}
