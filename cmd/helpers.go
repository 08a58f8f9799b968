package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/config"
	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/Mohsinsiddi/devfund/internal/rpc"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/Mohsinsiddi/devfund/internal/wallet"
	"github.com/sirupsen/logrus"
)

// Swapped out in tests.
var (
	newKeystore = func(dir string) wallet.KeystoreBackend { return wallet.DefaultKeystore(dir) }
	pickItem    = ui.PickItem
)

// target is everything a contract command needs: the network, a client
// bound to the selected endpoint and the DevFund address on that network.
type target struct {
	chain   *chain.Chain
	client  *chain.EVMClient
	address string
}

func (t *target) label() string { return t.chain.Label(cfg.NetworkMode) }

func resolveChain() (*chain.Chain, error) {
	return networkByName(cfg.Network)
}

func networkByName(name string) (*chain.Chain, error) {
	c, err := chain.NewRegistry().GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q (run `devfund network list`)", name)
	}
	return c, nil
}

// rpcCandidates lists custom endpoints first, then the built-in ones.
func rpcCandidates(c *chain.Chain) []string {
	var urls []string
	for _, u := range slices.Concat(cfg.GetRPCs(c.Name), c.RPCs(cfg.NetworkMode)) {
		if !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}
	return urls
}

func pickRPC(ctx context.Context, c *chain.Chain) (string, error) {
	if flagRPC != "" {
		return flagRPC, nil
	}
	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	url, err := rpc.Select(ctx, rpcCandidates(c), rpc.ParseAlgorithm(cfg.RPCAlgorithm))
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Label(cfg.NetworkMode), err)
	}
	return url, nil
}

// deploymentNetwork is the deployments key for c in the current mode:
// "bnb" on mainnet, "bnb-testnet" on testnet.
func deploymentNetwork(c *chain.Chain) string {
	if cfg.NetworkMode == chain.ModeTestnet {
		return c.Name + "-testnet"
	}
	return c.Name
}

// contractAddress resolves --address, then a recorded deployment, then the
// built-in address.
func contractAddress(c *chain.Chain) (string, error) {
	if flagAddress != "" {
		if err := contract.ValidateAddress(flagAddress); err != nil {
			return "", err
		}
		return flagAddress, nil
	}
	deps, err := loadDeployments()
	if err != nil {
		return "", err
	}
	return deps.Resolve(contract.DevFund, deploymentNetwork(c)), nil
}

func resolveTarget(ctx context.Context) (*target, error) {
	c, err := resolveChain()
	if err != nil {
		return nil, err
	}
	url, err := pickRPC(ctx, c)
	if err != nil {
		return nil, err
	}
	addr, err := contractAddress(c)
	if err != nil {
		return nil, err
	}
	logging.L().WithFields(logrus.Fields{
		"network": c.Name,
		"mode":    cfg.NetworkMode,
		"rpc":     url,
		"address": addr,
	}).Debug("target resolved")
	return &target{chain: c, client: chain.NewEVMClient(url), address: addr}, nil
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(newKeystore(cfg.KeysDir())),
	)
}

// resolveSigner picks the wallet named by --wallet, the configured default,
// or the manager's default, in that order.
func resolveSigner(mgr *wallet.Manager, name string) (*wallet.Signer, error) {
	if name == "" {
		name = cfg.DefaultWallet
	}
	if name == "" {
		w, err := mgr.Default()
		if err != nil {
			return nil, fmt.Errorf("%w\n  add one with: devfund wallet import <name>", err)
		}
		name = w.Name
	}
	return mgr.Signer(name)
}

// addressArg accepts a 0x address or the name of a wallet.
func addressArg(s string) (string, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if err := contract.ValidateAddress(s); err != nil {
			return "", err
		}
		return s, nil
	}
	w, err := newWalletManager().Get(s)
	if err != nil {
		return "", fmt.Errorf("%q is neither an address nor a wallet name", s)
	}
	return w.Address, nil
}

func functionItems(entries []contract.ABIEntry) []ui.PickerItem {
	items := make([]ui.PickerItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, ui.PickerItem{
			Label:    e.Name,
			SubLabel: e.Signature() + "  " + e.Selector(),
			Value:    e.Name,
		})
	}
	return items
}
