package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var simFrom string

var simulateCmd = &cobra.Command{
	Use:   "simulate <function> [args...]",
	Short: "Dry-run a DevFund write call via eth_call",
	Long: `Check whether a DevFund write call would succeed, without signing or
broadcasting. Reports the revert reason or the gas estimate.

The caller is --from (address or wallet name), else the default wallet.
Watch-only wallets work here.

Examples:
  devfund simulate claim --from 0xDev
  devfund simulate updateDeveloper 0xDev 1000 --from manager`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fn, fnArgs := args[0], args[1:]

		entry, err := contract.DevFund.Function(fn)
		if err != nil {
			return err
		}
		if !entry.IsWriteFunction() {
			return fmt.Errorf("%w: %q; use `devfund call %s`", contract.ErrNotWriteFunction, fn, fn)
		}
		calldata, err := contract.DevFund.PackCall(fn, fnArgs...)
		if err != nil {
			return err
		}

		from, err := simulateSender()
		if err != nil {
			return err
		}
		t, err := resolveTarget(ctx)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Simulating on %s...", t.label()))
		spin.Start()
		ok, result, err := t.client.SimulateCall(ctx, from, t.address, calldata)
		var gas uint64
		if err == nil && ok {
			gas, _ = t.client.EstimateGas(ctx, from, t.address, calldata)
		}
		spin.Stop()
		if err != nil {
			return fmt.Errorf("simulation error: %w", err)
		}

		pairs := [][2]string{
			{"Function", ui.Val(entry.Signature())},
			{"From", ui.Addr(from)},
			{"Contract", ui.Addr(t.address)},
			{"Network", t.label()},
		}
		if ok {
			pairs = append(pairs, [2]string{"Status", ui.Success("would succeed")})
			if gas > 0 {
				pairs = append(pairs, [2]string{"Gas estimate", fmt.Sprint(gas)})
			}
		} else {
			pairs = append(pairs, [2]string{"Status", ui.Err("would revert")})
			if result != "" {
				pairs = append(pairs, [2]string{"Reason", result})
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Simulation Result", pairs))
		return nil
	},
}

func simulateSender() (string, error) {
	if simFrom != "" {
		return addressArg(simFrom)
	}
	mgr := newWalletManager()
	name := cfg.DefaultWallet
	if name == "" {
		w, err := mgr.Default()
		if err != nil {
			return "", fmt.Errorf("--from is required when no default wallet is set")
		}
		return w.Address, nil
	}
	w, err := mgr.Get(name)
	if err != nil {
		return "", err
	}
	return w.Address, nil
}

func init() {
	simulateCmd.Flags().StringVar(&simFrom, "from", "", "caller address or wallet name (default: default wallet)")
}
