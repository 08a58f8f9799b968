package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/devfund/internal/config"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/devfund/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir      string
	cfg         *config.Config
	verbose     bool
	testnet     bool
	mainnet     bool
	flagNetwork string
	flagRPC     string
	flagAddress string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "devfund",
	Short: "Inspect and operate the DevFund developer allowance contract",
	Long: `devfund exposes the DevFund contract descriptor (address + ABI) and
talks to the deployed contract over JSON-RPC.

  Read developer records and the payout token, list and decode the ABI,
  decode DevFund events, and send manager/owner transactions or claims.

Global flags --testnet and --mainnet override the configured network mode
for a single invocation. Persist with: devfund config set network_mode <mode>`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if testnet {
			cfg.NetworkMode = "testnet"
		}
		if mainnet {
			cfg.NetworkMode = "mainnet"
		}
		if flagNetwork != "" {
			cfg.Network = flagNetwork
		}
		if err := logging.Init(logging.Options{Dir: cfg.Dir(), Level: cfg.LogLevel, Verbose: verbose}); err != nil {
			return err
		}
		logging.L().WithField("command", cmd.CommandPath()).Debug("start")
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logging.Failure(err, logrus.Fields{"args": os.Args[1:]})
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
	}
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	if envDir := os.Getenv(config.DirEnvVar); envDir != "" {
		cfgDir = envDir
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.devfund)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	pf.BoolVar(&testnet, "testnet", false, "use the network's testnet")
	pf.BoolVar(&mainnet, "mainnet", false, "use the network's mainnet")
	pf.StringVarP(&flagNetwork, "network", "n", "", "network name (default: config)")
	pf.StringVar(&flagRPC, "rpc", "", "RPC endpoint, skips endpoint selection")
	pf.StringVar(&flagAddress, "address", "", "DevFund address (default: deployment or built-in)")
	rootCmd.MarkFlagsMutuallyExclusive("testnet", "mainnet")

	rootCmd.AddCommand(
		initCmd,
		infoCmd,
		abiCmd,
		encodeCmd,
		decodeCmd,
		developerCmd,
		tokenCmd,
		callCmd,
		sendCmd,
		claimCmd,
		simulateCmd,
		txCmd,
		eventsCmd,
		deploymentCmd,
		walletCmd,
		networkCmd,
		rpcCmd,
		configCmd,
	)
}
