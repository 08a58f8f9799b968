package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the fund's payout token",
	Long: `Read msnToken() and the token's ERC-20 name, symbol and decimals.

Examples:
  devfund token
  devfund token --network bnb --testnet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := resolveTarget(ctx)
		if err != nil {
			return err
		}
		caller := contract.NewCaller(t.client, contract.DevFund, t.address)

		spin := ui.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Reading payout token on %s...", t.label()))
		spin.Start()
		addr, err := caller.Token(ctx)
		var info *contract.TokenInfo
		if err == nil {
			info, err = contract.TokenMetadata(ctx, t.client, addr)
		}
		spin.Stop()
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Fund", ui.Addr(t.address)},
			{"Token", ui.Addr(info.Address.Hex())},
			{"Name", ui.Val(info.Name)},
			{"Symbol", ui.Val(info.Symbol)},
			{"Decimals", strconv.Itoa(int(info.Decimals))},
		}
		if link := t.chain.AddressURL(cfg.NetworkMode, info.Address.Hex()); link != "" {
			pairs = append(pairs, [2]string{"Explorer", ui.Meta(link)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock(fmt.Sprintf("Payout Token · %s", t.label()), pairs))
		return nil
	},
}

// payoutToken returns the payout token metadata, or nil when it cannot be
// read. Callers fall back to base units.
func payoutToken(ctx context.Context, caller *contract.Caller, t *target) *contract.TokenInfo {
	addr, err := caller.Token(ctx)
	if err == nil {
		var info *contract.TokenInfo
		if info, err = contract.TokenMetadata(ctx, t.client, addr); err == nil {
			return info
		}
	}
	logging.L().WithError(err).Debug("payout token unavailable, showing base units")
	return nil
}
