package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/devfund/internal/config"
	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "", "wallet", "import", "manager", "--key", "0x"+testKey)
	require.NoError(t, err)
	assert.Contains(t, out, testAddr)

	_, err = run(t, dir, "", "wallet", "watch", "dev", devAddr)
	require.NoError(t, err)

	out, err = run(t, dir, "", "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "manager")
	assert.Contains(t, out, "signing")
	assert.Contains(t, out, "watch-only")
	assert.Contains(t, out, "2 wallet(s)")

	_, err = run(t, dir, "", "wallet", "use", "manager")
	require.NoError(t, err)
	out, err = run(t, dir, "", "config", "get", "default_wallet")
	require.NoError(t, err)
	assert.Equal(t, "manager", strings.TrimSpace(out))

	_, err = run(t, dir, "", "wallet", "remove", "manager", "--yes")
	require.NoError(t, err)
	out, err = run(t, dir, "", "config", "get", "default_wallet")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))

	out, err = run(t, dir, "", "wallet", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "manager")
}

func TestWalletImportFromStdin(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, testKey+"\n", "wallet", "import", "piped")
	require.NoError(t, err)
	assert.Contains(t, out, testAddr)
}

func TestWalletImportRejectsBadKey(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "wallet", "import", "bad", "--key", "0x1234")
	assert.Error(t, err)

	_, err = run(t, t.TempDir(), "\n", "wallet", "import", "empty")
	assert.Error(t, err)
}

func TestWalletNewShowsKeyOnce(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "", "wallet", "new", "fresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Private key")
	assert.Contains(t, out, "shown only once")

	out, err = run(t, dir, "", "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "fresh")
}

func TestWalletRemoveCancelled(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "wallet", "watch", "keep", devAddr)
	require.NoError(t, err)

	out, err := run(t, dir, "n\n", "wallet", "remove", "keep")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out, err = run(t, dir, "", "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "keep")
}

func TestWalletListEmpty(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No wallets")
}

func TestConfigShowDefaults(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"network": "bnb"`)
	assert.Contains(t, out, `"rpc_algorithm": "fastest"`)
	assert.Contains(t, out, `"confirm_timeout": 180`)
}

func TestConfigSetPersists(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "config", "set", "confirm_timeout", "60")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	var saved config.Config
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, 60, saved.ConfirmTimeout)
}

func savedConfig(t *testing.T, dir string) config.Config {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	var saved config.Config
	require.NoError(t, json.Unmarshal(data, &saved))
	return saved
}

func TestPerRunFlagsNotSaved(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "--testnet", "-n", "ethereum", "rpc", "add", "bnb", "https://rpc.example.org")
	require.NoError(t, err)

	saved := savedConfig(t, dir)
	assert.Equal(t, "bnb", saved.Network)
	assert.Equal(t, "mainnet", saved.NetworkMode)
	assert.Equal(t, []string{"https://rpc.example.org"}, saved.CustomRPCs["bnb"])
}

func TestEnvOverridesNotSaved(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEVFUND_LOG_LEVEL", "debug")
	t.Setenv("DEVFUND_NETWORK", "polygon")

	_, err := run(t, dir, "", "config", "set", "confirm_timeout", "60")
	require.NoError(t, err)

	saved := savedConfig(t, dir)
	assert.Equal(t, 60, saved.ConfirmTimeout)
	assert.Equal(t, "info", saved.LogLevel)
	assert.Equal(t, "bnb", saved.Network)
}

func TestWalletUseKeepsPerRunNetwork(t *testing.T) {
	dir := t.TempDir()
	importTestWallet(t, dir)

	_, err := run(t, dir, "", "--testnet", "wallet", "use", "manager")
	require.NoError(t, err)

	saved := savedConfig(t, dir)
	assert.Equal(t, "manager", saved.DefaultWallet)
	assert.Equal(t, "mainnet", saved.NetworkMode)
}

func TestConfigSetRejects(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "", "config", "set", "colour", "blue")
	assert.ErrorIs(t, err, config.ErrUnknownKey)

	_, err = run(t, dir, "", "config", "set", "network_mode", "devnet")
	assert.Error(t, err)

	_, err = run(t, dir, "", "config", "set", "network", "solana")
	assert.Error(t, err)

	_, err = run(t, dir, "", "config", "get", "colour")
	assert.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestNetworkUseWithTestnet(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "", "--testnet", "network", "use", "ethereum")
	require.NoError(t, err)
	assert.Contains(t, out, "Ethereum Sepolia")

	out, err = run(t, dir, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"network": "ethereum"`)
	assert.Contains(t, out, `"network_mode": "testnet"`)
}

func TestNetworkUseUnknown(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "network", "use", "unknownchain99")
	assert.Error(t, err)
}

func TestNetworkList(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "network", "list")
	require.NoError(t, err)
	for _, n := range []string{"bnb", "ethereum", "polygon", "localhost"} {
		assert.Contains(t, out, n)
	}
	assert.Contains(t, out, "current: bnb (mainnet)")
}

func TestNetworkFlagOverridesConfig(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "--network", "polygon", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Polygon (chain 137)")
}

func TestRPCAddListRemove(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "rpc", "add", "bnb", "https://custom.rpc.example")
	require.NoError(t, err)

	out, err := run(t, dir, "", "rpc", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "custom.rpc.example")
	assert.Contains(t, out, "custom")
	assert.Contains(t, out, "bsc-dataseed.binance.org")

	_, err = run(t, dir, "", "rpc", "add", "bnb", "https://custom.rpc.example")
	assert.Error(t, err, "duplicate")

	_, err = run(t, dir, "", "rpc", "remove", "bnb", "https://custom.rpc.example")
	require.NoError(t, err)
	out, err = run(t, dir, "", "rpc", "list", "bnb")
	require.NoError(t, err)
	assert.NotContains(t, out, "custom.rpc.example")
}

func TestRPCAddUnknownNetwork(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "rpc", "add", "nochain", "https://x.example")
	assert.Error(t, err)
}

func TestRPCBenchmark(t *testing.T) {
	fast := newMockNode(t, map[string]any{"eth_blockNumber": "0x100"})
	dir := t.TempDir()
	_, err := run(t, dir, "", "rpc", "add", "localhost", fast.URL)
	require.NoError(t, err)

	out, err := run(t, dir, "", "rpc", "benchmark", "localhost")
	require.NoError(t, err)
	assert.Contains(t, out, fast.URL)
	assert.Contains(t, out, "selected")
}

func TestCustomRPCIsSelected(t *testing.T) {
	node := newMockNode(t, map[string]any{
		"eth_blockNumber": "0x100",
		"eth_call":        fundResponses(t),
	})
	dir := t.TempDir()
	_, err := run(t, dir, "", "config", "set", "rpc_algorithm", "failover")
	require.NoError(t, err)
	_, err = run(t, dir, "", "rpc", "add", "localhost", node.URL)
	require.NoError(t, err)

	out, err := run(t, dir, "", "--network", "localhost", "token")
	require.NoError(t, err)
	assert.Contains(t, out, "Mason Token")
}

func TestDeploymentLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "", "--testnet", "deployment", "add", strings.ToLower(devAddr))
	require.NoError(t, err)
	assert.Contains(t, out, "bnb-testnet")

	out, err = run(t, dir, "", "deployment", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "built-in")
	assert.Contains(t, out, "bnb-testnet")
	assert.Contains(t, out, devAddr)

	out, err = run(t, dir, "", "--testnet", "info")
	require.NoError(t, err)
	assert.Contains(t, out, devAddr)
	assert.Contains(t, out, "Built-in address")

	out, err = run(t, dir, "", "info")
	require.NoError(t, err)
	assert.NotContains(t, out, "Built-in address", "mainnet keeps the built-in address")

	_, err = run(t, dir, "", "--testnet", "deployment", "remove")
	require.NoError(t, err)
	_, err = run(t, dir, "", "--testnet", "deployment", "remove")
	assert.ErrorIs(t, err, contract.ErrDeploymentNotFound)
}

func TestDeploymentAddRejectsBadChecksum(t *testing.T) {
	bad := strings.Replace(contract.DevFundAddress, "A", "a", 1)
	_, err := run(t, t.TempDir(), "", "deployment", "add", bad)
	assert.Error(t, err)
}

func TestAddressFlagOverridesDeployment(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "deployment", "add", devAddr)
	require.NoError(t, err)

	out, err := run(t, dir, "", "--address", msnAddr, "info")
	require.NoError(t, err)
	assert.Contains(t, out, msnAddr)
}

func TestLogFileWritten(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "--verbose", "abi")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, config.LogFile))
	assert.NoError(t, err)
}
