package cmd

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var developerRaw bool

var developerCmd = &cobra.Command{
	Use:   "developer <address|wallet>",
	Short: "Show a developer's record in the fund",
	Long: `Read msnDevelopers(address) and show whether the address is a registered
developer, its monthly allowance, claim count, total claimed and join time.
The argument may also be the name of a wallet.
Amounts are shown in payout token units unless --raw is given.

Examples:
  devfund developer 0xDev
  devfund developer 0xDev --raw --network bnb --testnet`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dev, err := addressArg(args[0])
		if err != nil {
			return err
		}
		t, err := resolveTarget(ctx)
		if err != nil {
			return err
		}
		caller := contract.NewCaller(t.client, contract.DevFund, t.address)

		spin := ui.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Reading developer on %s...", t.label()))
		spin.Start()
		info, err := caller.Developer(ctx, dev)
		var tok *contract.TokenInfo
		if err == nil && !developerRaw && info.IsDeveloper {
			tok = payoutToken(ctx, caller, t)
		}
		spin.Stop()
		if err != nil {
			return err
		}

		amount := func(v *big.Int) string {
			if tok == nil {
				return ui.Amount(v.String(), "")
			}
			return ui.Amount(contract.FormatUnits(v, tok.Decimals), tok.Symbol)
		}
		joined := "-"
		if !info.JoinedAt.IsZero() {
			joined = info.JoinedAt.Format(time.RFC3339)
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock(
			fmt.Sprintf("Developer · %s", t.label()),
			[][2]string{
				{"Address", ui.Addr(info.Address.Hex())},
				{"Status", ui.DeveloperStatus(info.IsDeveloper)},
				{"Monthly allowance", amount(info.MonthlyAllowance)},
				{"Claims", info.TxCount.String()},
				{"Total claimed", amount(info.TotalClaimed)},
				{"Joined", joined},
			}))
		return nil
	},
}

func init() {
	developerCmd.Flags().BoolVar(&developerRaw, "raw", false, "show amounts in base units")
}
