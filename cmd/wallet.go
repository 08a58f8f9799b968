package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/Mohsinsiddi/devfund/internal/wallet"
	"github.com/spf13/cobra"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the wallets that sign DevFund transactions",
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a private key as a signing wallet",
	Long: `Store a private key in the OS keychain (or the encrypted file keyring on
headless machines) and record a signing wallet for it.

The key is read from --key or, when omitted, from one line of stdin.

Examples:
  devfund wallet import manager --key 0xabc...
  pass show devfund/manager | devfund wallet import manager`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := walletKeyFlag
		if key == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Private key: ")
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			key = strings.TrimSpace(line)
		}
		if key == "" {
			return fmt.Errorf("%w: no key given", wallet.ErrInvalidKey)
		}

		w, err := newWalletManager().Import(args[0], key)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Signing wallet %q imported: %s", w.Name, ui.Addr(w.Address))))
		fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("Set as default with: devfund wallet use "+w.Name))
		return nil
	},
}

var walletNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Generate a new signing wallet",
	Long: `Generate a fresh keypair and store the private key in the keychain.

The private key is displayed ONCE. Copy it into a password manager.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, hexKey, err := newWalletManager().Generate(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.KeyValueBlock("New Wallet", [][2]string{
			{"Name", ui.Val(w.Name)},
			{"Address", ui.Addr(w.Address)},
			{"Private key", ui.Val(hexKey)},
		}))
		fmt.Fprintln(out, ui.Warn("The private key is shown only once. Never share it."))
		return nil
	},
}

var walletWatchCmd = &cobra.Command{
	Use:   "watch <name> <address>",
	Short: "Record an address without a key",
	Long: `Record a watch-only wallet. It can be used as a name for addresses, e.g.
devfund developer <name>, but cannot sign.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWalletManager().Watch(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", w.Name, ui.Addr(w.Address))))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		wallets, err := newWalletManager().List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Meta("No wallets configured yet."))
			fmt.Fprintln(out, ui.Hint("Add one with: devfund wallet import <name>"))
			return nil
		}

		t := ui.NewTable(
			ui.Column{Title: "Name"},
			ui.Column{Title: "Address"},
			ui.Column{Title: "Type"},
			ui.Column{Title: "Default"},
		)
		for _, w := range wallets {
			def := ""
			if w.IsDefault || w.Name == cfg.DefaultWallet {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(w.Type), def)
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d wallet(s)", len(wallets))))
		return nil
	},
}

var walletRemoveYes bool

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !walletRemoveYes && !ui.ConfirmDanger(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove wallet %q and its key?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			if err := cfg.Set("default_wallet", ""); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default signing wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := newWalletManager().SetDefault(name); err != nil {
			return err
		}
		if err := cfg.Set("default_wallet", name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key (default: read from stdin)")
	walletRemoveCmd.Flags().BoolVarP(&walletRemoveYes, "yes", "y", false, "skip the confirmation prompt")
	walletCmd.AddCommand(walletImportCmd, walletNewCmd, walletWatchCmd, walletListCmd, walletRemoveCmd, walletUseCmd)
}
