package cmd

import (
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var infoCheck bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the DevFund descriptor and validate it",
	Long: `Summarise the built-in DevFund descriptor: export name, address on the
selected network, entry counts and the result of structural validation.

With --check the address is also looked up on-chain to confirm that
contract code is deployed there.

Examples:
  devfund info
  devfund info --check --network bnb --testnet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		d := contract.DevFund

		c, err := resolveChain()
		if err != nil {
			return err
		}
		addr, err := contractAddress(c)
		if err != nil {
			return err
		}

		validation := ui.Success("valid")
		verr := d.Validate()
		if verr != nil {
			validation = ui.Err("invalid")
		}

		ctor := "none"
		if e, ok := d.Constructor(); ok {
			ctor = "constructor" + e.Signature()
		}

		pairs := [][2]string{
			{"Export", ui.Val(d.Name())},
			{"Address", ui.Addr(addr)},
			{"Network", fmt.Sprintf("%s (chain %d)", c.Label(cfg.NetworkMode), c.ID(cfg.NetworkMode))},
			{"Entries", strconv.Itoa(len(d.ABI()))},
			{"Events", strconv.Itoa(len(d.Events()))},
			{"Read functions", strconv.Itoa(len(d.ReadFunctions()))},
			{"Write functions", strconv.Itoa(len(d.WriteFunctions()))},
			{"Constructor", ctor},
			{"Validation", validation},
		}
		if addr != d.Address() {
			pairs = append(pairs, [2]string{"Built-in address", ui.Meta(d.Address())})
		}
		if link := c.AddressURL(cfg.NetworkMode, addr); link != "" {
			pairs = append(pairs, [2]string{"Explorer", ui.Meta(link)})
		}

		if infoCheck {
			t, err := resolveTarget(cmd.Context())
			if err != nil {
				return err
			}
			code, err := t.client.GetCode(cmd.Context(), t.address)
			if err != nil {
				return fmt.Errorf("checking code: %w", err)
			}
			deployed := ui.Success(fmt.Sprintf("%d bytes of code", (len(code)-2)/2))
			if code == "" || code == "0x" {
				deployed = ui.Warn("no contract code at this address")
			}
			pairs = append(pairs, [2]string{"On-chain", deployed})
		}

		fmt.Fprintln(out, ui.KeyValueBlock("DevFund Descriptor", pairs))
		if verr != nil {
			return verr
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoCheck, "check", false, "confirm contract code exists at the address")
}
