package cmd

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "devfund")
	assert.Contains(t, out, Version)
}

func TestInfo(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "token")
	assert.Contains(t, out, contract.DevFundAddress)
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "constructor(address)")
	assert.Contains(t, out, "bscscan.com/address/")
}

func TestInfoCheckFindsCode(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_getCode": "0x6080604052"})
	out, err := run(t, t.TempDir(), "", "info", "--check", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "5 bytes of code")
}

func TestInfoCheckNoCode(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_getCode": "0x"})
	out, err := run(t, t.TempDir(), "", "info", "--check", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "no contract code")
}

func TestABIList(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "abi")
	require.NoError(t, err)
	assert.Contains(t, out, "claim()")
	assert.Contains(t, out, "0x4e71d92d")
	assert.Contains(t, out, "msnDevelopers(address)")
	assert.Contains(t, out, "DeveloperAdded(address,uint256)")
	assert.Contains(t, out, "18 entries")
}

func TestABIEventsJSON(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "abi", "--events", "--json")
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 6)
	for _, e := range entries {
		assert.Equal(t, "event", e["type"])
	}
}

func TestABIEventsAndFunctionsExclusive(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "abi", "--events", "--functions")
	assert.Error(t, err)
}

func TestABIExportToFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "devfund.json")
	_, err := run(t, dir, "", "abi", "export", file)
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var b contract.Bundle
	require.NoError(t, json.Unmarshal(data, &b))
	require.Len(t, b, 1)
	assert.Equal(t, "token", b[0].Name())
	assert.Equal(t, contract.DevFundAddress, b[0].Address())
	assert.Len(t, b[0].ABI(), 18)
}

func TestABIExportAll(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "abi", "export", "--all")
	require.NoError(t, err)
	var b contract.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Len(t, b, 2)
}

func TestABIBuiltins(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "abi", "builtins")
	require.NoError(t, err)
	assert.Contains(t, out, "devfund")
	assert.Contains(t, out, "erc20")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "", "encode", "updateDeveloper", devAddr, "1000", "--raw")
	require.NoError(t, err)
	calldata := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(calldata, "0xd855da2e"), calldata)

	out, err = run(t, dir, "", "decode", calldata)
	require.NoError(t, err)
	assert.Contains(t, out, "updateDeveloper(address,uint256)")
	assert.Contains(t, out, devAddr)
	assert.Contains(t, out, "1000")
}

func TestEncodeConstructor(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "encode", "constructor", msnAddr, "--raw")
	require.NoError(t, err)
	assert.Equal(t, "0x"+strings.Repeat("0", 24)+msnAddr[2:], strings.TrimSpace(out))
}

func TestEncodeErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "encode", "transfer", devAddr, "1")
	assert.ErrorIs(t, err, contract.ErrFunctionNotFound)

	_, err = run(t, dir, "", "encode", "updateDeveloper", devAddr)
	assert.ErrorIs(t, err, contract.ErrArgCount)
}

func TestDecodeUnknownSelector(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "decode", "0xa9059cbb")
	assert.ErrorIs(t, err, contract.ErrFunctionNotFound)

	_, err = run(t, t.TempDir(), "", "decode", "nothex")
	assert.Error(t, err)
}

func TestDeveloper(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_call": fundResponses(t)})
	out, err := run(t, t.TempDir(), "", "developer", devAddr, "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "registered")
	assert.Contains(t, out, "1.5 MSN")
	assert.Contains(t, out, "3 MSN")
	assert.Contains(t, out, "2023-11-14T22:13:20Z")
}

func TestDeveloperRaw(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_call": fundResponses(t)})
	out, err := run(t, t.TempDir(), "", "developer", devAddr, "--raw", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "1500000000000000000")
	assert.Len(t, node.seen("eth_call"), 1, "raw output skips the token lookup")
}

func TestDeveloperNotRegistered(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_call": fundResponses(t)})
	out, err := run(t, t.TempDir(), "", "developer", msnAddr, "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "not registered")
}

func TestDeveloperByWalletName(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "wallet", "watch", "alice", devAddr)
	require.NoError(t, err)

	node := newMockNode(t, map[string]any{"eth_call": fundResponses(t)})
	out, err := run(t, dir, "", "developer", "alice", "--rpc", node.URL, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "registered")
}

func TestDeveloperBadAddress(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "developer", "0x1234")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_call": fundResponses(t)})
	out, err := run(t, t.TempDir(), "", "token", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, common.HexToAddress(msnAddr).Hex())
	assert.Contains(t, out, "Mason Token")
	assert.Contains(t, out, "MSN")
	assert.Contains(t, out, "18")
}

func TestCall(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_call": fundResponses(t)})
	out, err := run(t, t.TempDir(), "", "call", "msnDevelopers", devAddr, "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "isDeveloper")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "joinedAtTime")
}

func TestCallUsesDeploymentAddress(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "deployment", "add", devAddr)
	require.NoError(t, err)

	node := newMockNode(t, map[string]any{"eth_call": fundResponses(t)})
	_, err = run(t, dir, "", "call", "msnToken", "--rpc", node.URL)
	require.NoError(t, err)

	calls := node.seen("eth_call")
	require.Len(t, calls, 1)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(calls[0].Params[0], &msg))
	assert.Equal(t, strings.ToLower(devAddr), strings.ToLower(msg["to"]))
}

func TestCallRejectsWriteFunction(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "call", "claim")
	assert.ErrorIs(t, err, contract.ErrNotReadFunction)
}

func TestCallPicker(t *testing.T) {
	old := pickItem
	t.Cleanup(func() { pickItem = old })
	pickItem = func(string, []ui.PickerItem) (string, error) { return "msnDevelopers", nil }

	node := newMockNode(t, map[string]any{"eth_call": fundResponses(t)})
	out, err := run(t, t.TempDir(), devAddr+"\n", "call", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "isDeveloper")
	assert.Contains(t, callData(node.seen("eth_call")[0]), strings.ToLower(devAddr[2:]))
}

func TestCallPickerCancelled(t *testing.T) {
	old := pickItem
	t.Cleanup(func() { pickItem = old })
	pickItem = func(string, []ui.PickerItem) (string, error) { return "", nil }

	_, err := run(t, t.TempDir(), "", "call")
	assert.NoError(t, err)
}

// --- send ---

func sendNode(t *testing.T, simulate any) *mockNode {
	t.Helper()
	ev, err := contract.DevFund.Event("DeveloperUpdated")
	require.NoError(t, err)
	parsed, err := contract.DevFund.Parsed()
	require.NoError(t, err)
	data, err := parsed.Events["DeveloperUpdated"].Inputs.Pack(common.HexToAddress(devAddr), big.NewInt(1000))
	require.NoError(t, err)

	return newMockNode(t, map[string]any{
		"eth_chainId":             "0x61",
		"eth_call":                simulate,
		"eth_estimateGas":         "0xc350",
		"eth_gasPrice":            "0x3b9aca00",
		"eth_getTransactionCount": "0x3",
		"eth_sendRawTransaction":  txHash,
		"eth_getTransactionReceipt": map[string]any{
			"status":      "0x1",
			"blockNumber": "0x10",
			"gasUsed":     "0xa410",
			"logs": []map[string]any{{
				"address":         contract.DevFundAddress,
				"topics":          []string{ev.Topic()},
				"data":            hexutil.Encode(data),
				"blockNumber":     "0x10",
				"transactionHash": txHash,
				"logIndex":        "0x0",
			}},
		},
	})
}

func importTestWallet(t *testing.T, dir string) {
	t.Helper()
	_, err := run(t, dir, "", "wallet", "import", "manager", "--key", testKey)
	require.NoError(t, err)
}

func sentTx(t *testing.T, node *mockNode) *types.Transaction {
	t.Helper()
	calls := node.seen("eth_sendRawTransaction")
	require.Len(t, calls, 1)
	var rawHex string
	require.NoError(t, json.Unmarshal(calls[0].Params[0], &rawHex))
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(hexutil.MustDecode(rawHex)))
	return tx
}

func TestSendUpdateDeveloper(t *testing.T) {
	dir := t.TempDir()
	importTestWallet(t, dir)
	node := sendNode(t, "0x")

	out, err := run(t, dir, "", "send", "updateDeveloper", devAddr, "1000", "--yes", "--testnet", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Transaction sent")
	assert.Contains(t, out, txHash)
	assert.Contains(t, out, "testnet.bscscan.com/tx/"+txHash)
	assert.Contains(t, out, "Confirmed in block 16")
	assert.Contains(t, out, "DeveloperUpdated")
	assert.Contains(t, out, "newMonthlyAllowance=1000")

	tx := sentTx(t, node)
	assert.Equal(t, "97", tx.ChainId().String())
	assert.Equal(t, uint64(3), tx.Nonce())
	assert.Equal(t, uint64(50000), tx.Gas())
	assert.Equal(t, common.HexToAddress(contract.DevFundAddress), *tx.To())
	want, err := contract.DevFund.PackCall("updateDeveloper", devAddr, "1000")
	require.NoError(t, err)
	assert.Equal(t, want, tx.Data())

	from, err := types.Sender(types.NewLondonSigner(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, testAddr, from.Hex())
}

func TestClaimNoWait(t *testing.T) {
	dir := t.TempDir()
	importTestWallet(t, dir)
	node := sendNode(t, "0x")

	out, err := run(t, dir, "", "claim", "--yes", "--no-wait", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Transaction sent")
	assert.Empty(t, node.seen("eth_getTransactionReceipt"))
	assert.Equal(t, common.FromHex("0x4e71d92d"), sentTx(t, node).Data())
}

func TestSendAbortsOnRevert(t *testing.T) {
	dir := t.TempDir()
	importTestWallet(t, dir)
	node := sendNode(t, rpcFailure{Code: 3, Message: "execution reverted: Not a developer"})

	_, err := run(t, dir, "", "claim", "--yes", "--rpc", node.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not a developer")
	assert.Empty(t, node.seen("eth_sendRawTransaction"))
}

func TestSendForceAfterRevert(t *testing.T) {
	dir := t.TempDir()
	importTestWallet(t, dir)
	node := sendNode(t, rpcFailure{Code: 3, Message: "execution reverted: Not a developer"})

	out, err := run(t, dir, "", "claim", "--yes", "--force", "--no-wait", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "simulation reverted")
	assert.Len(t, node.seen("eth_sendRawTransaction"), 1)
}

func TestSendCancelled(t *testing.T) {
	dir := t.TempDir()
	importTestWallet(t, dir)
	node := sendNode(t, "0x")

	out, err := run(t, dir, "n\n", "claim", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")
	assert.Empty(t, node.seen("eth_sendRawTransaction"))
}

func TestSendDangerousFunctionAsksFirst(t *testing.T) {
	dir := t.TempDir()
	importTestWallet(t, dir)
	node := sendNode(t, "0x")

	out, err := run(t, dir, "y\n", "send", "transferOwnership", devAddr, "--no-wait", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "irreversible")
	assert.Contains(t, out, "hands the fund to a new owner")
	assert.Len(t, node.seen("eth_sendRawTransaction"), 1)
}

func TestSendPickerPromptsForArguments(t *testing.T) {
	old := pickItem
	t.Cleanup(func() { pickItem = old })
	pickItem = func(_ string, items []ui.PickerItem) (string, error) {
		for _, it := range items {
			if it.Value == "msnToken" {
				t.Errorf("read function %q offered for send", it.Value)
			}
		}
		return "updateDeveloper", nil
	}

	dir := t.TempDir()
	importTestWallet(t, dir)
	node := sendNode(t, "0x")

	out, err := run(t, dir, devAddr+"\n1000\ny\n", "send", "--no-wait", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "_newMonthlyAllowance")
	want, err := contract.DevFund.PackCall("updateDeveloper", devAddr, "1000")
	require.NoError(t, err)
	assert.Equal(t, want, sentTx(t, node).Data())
}

func TestSendRejectsReadFunction(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "send", "msnToken")
	assert.ErrorIs(t, err, contract.ErrNotWriteFunction)
}

func TestSendBadArgumentsBeforeWallet(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "send", "updateDeveloper", "nope", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")
}

func TestSendWithoutWallet(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "claim", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet import")
}

func TestSendWatchOnlyWallet(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "wallet", "watch", "viewer", devAddr)
	require.NoError(t, err)

	_, err = run(t, dir, "", "claim", "--yes", "--wallet", "viewer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch-only")
}

// --- events ---

func TestEvents(t *testing.T) {
	parsed, err := contract.DevFund.Parsed()
	require.NoError(t, err)
	added, err := contract.DevFund.Event("DeveloperAdded")
	require.NoError(t, err)
	data, err := parsed.Events["DeveloperAdded"].Inputs.Pack(common.HexToAddress(devAddr), big.NewInt(500))
	require.NoError(t, err)

	node := newMockNode(t, map[string]any{
		"eth_blockNumber": "0x1000",
		"eth_getLogs": []map[string]any{
			{
				"address":         contract.DevFundAddress,
				"topics":          []string{added.Topic()},
				"data":            hexutil.Encode(data),
				"blockNumber":     "0xfff",
				"transactionHash": txHash,
				"logIndex":        "0x1",
			},
			{
				"address":         contract.DevFundAddress,
				"topics":          []string{"0x" + strings.Repeat("ab", 32)},
				"data":            "0x",
				"blockNumber":     "0xfff",
				"transactionHash": txHash,
				"logIndex":        "0x2",
			},
		},
	})

	out, err := run(t, t.TempDir(), "", "events", "--event", "DeveloperAdded", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "DeveloperAdded")
	assert.Contains(t, out, "monthlyAllowance=500")
	assert.Contains(t, out, "4095")
	assert.Contains(t, out, "1 (showing 1)")

	calls := node.seen("eth_getLogs")
	require.Len(t, calls, 1)
	var filter struct {
		Address   string     `json:"address"`
		FromBlock string     `json:"fromBlock"`
		Topics    [][]string `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Params[0], &filter))
	assert.Equal(t, "0x0", filter.FromBlock, "window starts at genesis on a short chain")
	assert.Equal(t, [][]string{{added.Topic()}}, filter.Topics)
}

func TestEventsExplicitRange(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_getLogs": []any{}})
	out, err := run(t, t.TempDir(), "", "events", "--from", "100", "--to", "0xc8", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "100 → 200")
	assert.Empty(t, node.seen("eth_blockNumber"))

	var filter map[string]any
	require.NoError(t, json.Unmarshal(node.seen("eth_getLogs")[0].Params[0], &filter))
	assert.Equal(t, "0x64", filter["fromBlock"])
	assert.Equal(t, "0xc8", filter["toBlock"])
	assert.Len(t, filter["topics"].([]any)[0], 6)
}

func TestEventsWindowEndsAtTo(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_blockNumber": "0xf4240", "eth_getLogs": []any{}})

	out, err := run(t, t.TempDir(), "", "events", "--to", "100", "--rpc", node.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "0 → 100")
	assert.Empty(t, node.seen("eth_blockNumber"))

	var filter map[string]any
	require.NoError(t, json.Unmarshal(node.seen("eth_getLogs")[0].Params[0], &filter))
	assert.Equal(t, "0x0", filter["fromBlock"])
	assert.Equal(t, "0x64", filter["toBlock"])

	_, err = run(t, t.TempDir(), "", "events", "--to", "12000", "--rpc", node.URL)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(node.seen("eth_getLogs")[1].Params[0], &filter))
	assert.Equal(t, "0x1b58", filter["fromBlock"])
}

func TestEventsRejectsInvertedRange(t *testing.T) {
	node := newMockNode(t, map[string]any{"eth_getLogs": []any{}})
	_, err := run(t, t.TempDir(), "", "events", "--from", "200", "--to", "100", "--rpc", node.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after --to")
	assert.Empty(t, node.seen("eth_getLogs"))
}

func TestEventsUnknownName(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "events", "--event", "Transfer")
	assert.ErrorIs(t, err, contract.ErrEventNotFound)
}

func TestParseBlock(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"latest", 0, false},
		{"42", 42, false},
		{"0x2a", 42, false},
		{"-1", 0, true},
		{"0xzz", 0, true},
		{"pending", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBlock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
