package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/sync"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var deploymentCmd = &cobra.Command{
	Use:     "deployment",
	Aliases: []string{"deployments"},
	Short:   "Record where DevFund is deployed on each network",
	Long: `Manage per-network DevFund addresses. Commands use, in order: --address,
the deployment recorded for the selected network and mode, then the
built-in address.

Testnet deployments are stored under "<network>-testnet".

Examples:
  devfund deployment add 0xFund --network bnb --testnet
  devfund deployment list
  devfund deployment remove --network bnb --testnet`,
}

var deploymentAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Record the DevFund address for the selected network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain()
		if err != nil {
			return err
		}
		deps, err := loadDeployments()
		if err != nil {
			return err
		}
		d := contract.Deployment{Name: contract.DevFund.Name(), Network: deploymentNetwork(c), Address: args[0]}
		if err := deps.Add(d); err != nil {
			return err
		}
		if err := deps.Save(); err != nil {
			return err
		}
		saved, _ := deps.Get(d.Name, d.Network)
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("DevFund on %s: %s", d.Network, ui.Addr(saved.Address))))
		return nil
	},
}

var deploymentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded deployments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := loadDeployments()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		t := ui.NewTable(ui.Column{Title: "Name"}, ui.Column{Title: "Network"}, ui.Column{Title: "Address"})
		t.AddRow(ui.Meta(contract.DevFund.Name()), ui.Meta("built-in"), ui.Addr(contract.DevFund.Address()))
		for _, d := range deps.All() {
			t.AddRow(ui.Val(d.Name), ui.Network(d.Network), ui.Addr(d.Address))
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

var deploymentRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Forget the DevFund address for the selected network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain()
		if err != nil {
			return err
		}
		deps, err := loadDeployments()
		if err != nil {
			return err
		}
		network := deploymentNetwork(c)
		if err := deps.Remove(contract.DevFund.Name(), network); err != nil {
			return err
		}
		if err := deps.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Removed DevFund deployment on %s", network)))
		return nil
	},
}

func loadDeployments() (*contract.Deployments, error) {
	deps := contract.NewDeployments(cfg.DeploymentsPath())
	if err := deps.Load(); err != nil {
		return nil, err
	}
	return deps, nil
}

var syncWatch time.Duration

var deploymentSyncCmd = &cobra.Command{
	Use:   "sync <manifest-url>",
	Short: "Import DevFund addresses from a deployments manifest",
	Long: `Fetch a deployments.json manifest and record every DevFund entry
(contract key "devfund" or "token") as a per-network deployment.

Manifest format:
  {"contracts": {"devfund": {"bnb": {"address": "0x..."}, "bnb-testnet": {"address": "0x..."}}}}

With --watch the manifest is re-fetched on that interval until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := loadDeployments()
		if err != nil {
			return err
		}
		s := sync.New(contract.DevFund, deps, "devfund")
		out := cmd.OutOrStdout()
		printReport := func(rep *sync.Report) {
			for _, d := range rep.Added {
				fmt.Fprintln(out, ui.Success(fmt.Sprintf("DevFund on %s: %s", ui.Network(d.Network), ui.Addr(d.Address))))
			}
			for _, sk := range rep.Skipped {
				fmt.Fprintln(out, ui.Warn(fmt.Sprintf("skipped %s on %s: %s", sk.Contract, sk.Network, sk.Reason)))
			}
			fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d imported, %d skipped", len(rep.Added), len(rep.Skipped))))
		}

		if syncWatch <= 0 {
			rep, err := s.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReport(rep)
			return nil
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Hint(fmt.Sprintf("Syncing every %s, Ctrl+C to stop", syncWatch)))
		return s.Watch(ctx, args[0], syncWatch, printReport)
	},
}

func init() {
	deploymentSyncCmd.Flags().DurationVar(&syncWatch, "watch", 0, "re-sync on this interval (e.g. 10m)")
	deploymentCmd.AddCommand(deploymentAddCmd, deploymentListCmd, deploymentRemoveCmd, deploymentSyncCmd)
}
