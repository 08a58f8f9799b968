package contract_test

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packOutputs(t *testing.T, d *contract.Descriptor, fn string, vals ...any) string {
	t.Helper()
	parsed, err := d.Parsed()
	require.NoError(t, err)
	raw, err := parsed.Methods[fn].Outputs.Pack(vals...)
	require.NoError(t, err)
	return hexutil.Encode(raw)
}

func TestCallerDeveloper(t *testing.T) {
	joined := int64(1_700_000_000)
	result := packOutputs(t, contract.DevFund, "msnDevelopers",
		true, big.NewInt(1000), big.NewInt(3), big.NewInt(3000), big.NewInt(joined))
	node, client := newMockNode(t, map[string]any{"eth_call": result})

	c := contract.NewCaller(client, contract.DevFund, "")
	info, err := c.Developer(context.Background(), devA)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(devA), info.Address)
	assert.True(t, info.IsDeveloper)
	assert.Equal(t, int64(1000), info.MonthlyAllowance.Int64())
	assert.Equal(t, int64(3), info.TxCount.Int64())
	assert.Equal(t, int64(3000), info.TotalClaimed.Int64())
	assert.Equal(t, time.Unix(joined, 0).UTC(), info.JoinedAt)

	calls := node.seen("eth_call")
	require.Len(t, calls, 1)
	msg := callParams(t, calls[0])
	assert.Equal(t, contract.DevFundAddress, msg["to"])
	assert.True(t, strings.HasPrefix(msg["data"], "0x54f434e9"))
	assert.True(t, strings.HasSuffix(msg["data"], devA[2:]))
}

func TestCallerDeveloperNotRegistered(t *testing.T) {
	result := packOutputs(t, contract.DevFund, "msnDevelopers",
		false, big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0))
	_, client := newMockNode(t, map[string]any{"eth_call": result})

	info, err := contract.NewCaller(client, contract.DevFund, "").Developer(context.Background(), devB)
	require.NoError(t, err)
	assert.False(t, info.IsDeveloper)
	assert.True(t, info.JoinedAt.IsZero())
}

func TestCallerAddressOverride(t *testing.T) {
	node, client := newMockNode(t, map[string]any{
		"eth_call": packOutputs(t, contract.DevFund, "msnToken", common.HexToAddress(devB)),
	})
	c := contract.NewCaller(client, contract.DevFund, devA)
	assert.Equal(t, devA, c.Address())

	token, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(devB), token)
	assert.Equal(t, devA, callParams(t, node.seen("eth_call")[0])["to"])
}

func TestCallerCallStrings(t *testing.T) {
	_, client := newMockNode(t, map[string]any{
		"eth_call": packOutputs(t, contract.DevFund, "msnToken", common.HexToAddress(contract.DevFundAddress)),
	})
	out, err := contract.NewCaller(client, contract.DevFund, "").Call(context.Background(), "msnToken")
	require.NoError(t, err)
	assert.Equal(t, []string{contract.DevFundAddress}, out)
}

func TestCallerRejectsWriteFunction(t *testing.T) {
	node, client := newMockNode(t, nil)
	_, err := contract.NewCaller(client, contract.DevFund, "").Call(context.Background(), "claim")
	assert.ErrorIs(t, err, contract.ErrNotReadFunction)
	assert.Empty(t, node.seen("eth_call"))
}

func TestCallerUnknownFunction(t *testing.T) {
	_, client := newMockNode(t, nil)
	_, err := contract.NewCaller(client, contract.DevFund, "").Call(context.Background(), "balanceOf")
	assert.ErrorIs(t, err, contract.ErrFunctionNotFound)
}

func TestCallerEmptyResult(t *testing.T) {
	_, client := newMockNode(t, map[string]any{"eth_call": "0x"})
	_, err := contract.NewCaller(client, contract.DevFund, "").Token(context.Background())
	assert.ErrorIs(t, err, contract.ErrEmptyResult)
}

func TestCallerRPCError(t *testing.T) {
	_, client := newMockNode(t, map[string]any{"eth_call": rpcFailure{Code: -32000, Message: "header not found"}})
	_, err := contract.NewCaller(client, contract.DevFund, "").Call(context.Background(), "msnToken")
	require.Error(t, err)
	var rpcErr *chain.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
}

func TestTokenMetadata(t *testing.T) {
	erc20, ok := contract.GetBuiltin("erc20")
	require.True(t, ok)
	d := erc20.Descriptor()

	bySelector := map[string]string{
		"0x06fdde03": packOutputs(t, d, "name", "Mason Token"),
		"0x95d89b41": packOutputs(t, d, "symbol", "MSN"),
		"0x313ce567": packOutputs(t, d, "decimals", uint8(18)),
	}
	_, client := newMockNode(t, map[string]any{
		"eth_call": func(c rpcCall) any {
			return bySelector[callParams(t, c)["data"]]
		},
	})

	token := common.HexToAddress(devB)
	info, err := contract.TokenMetadata(context.Background(), client, token)
	require.NoError(t, err)
	assert.Equal(t, token, info.Address)
	assert.Equal(t, "Mason Token", info.Name)
	assert.Equal(t, "MSN", info.Symbol)
	assert.Equal(t, uint8(18), info.Decimals)
}

func TestTokenMetadataBytes32Name(t *testing.T) {
	erc20, ok := contract.GetBuiltin("erc20")
	require.True(t, ok)
	d := erc20.Descriptor()

	// Older tokens return name() as bytes32 instead of string.
	word := make([]byte, 32)
	copy(word, "Mason Token")
	bySelector := map[string]string{
		"0x06fdde03": hexutil.Encode(word),
		"0x95d89b41": packOutputs(t, d, "symbol", "MSN"),
		"0x313ce567": packOutputs(t, d, "decimals", uint8(18)),
	}
	_, client := newMockNode(t, map[string]any{
		"eth_call": func(c rpcCall) any {
			return bySelector[callParams(t, c)["data"]]
		},
	})

	_, err := contract.TokenMetadata(context.Background(), client, common.HexToAddress(devB))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding name")
}

func TestFormatUnits(t *testing.T) {
	wei := func(s string) *big.Int {
		n, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		return n
	}
	tests := []struct {
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{wei("1500000000000000000"), 18, "1.5"},
		{wei("1000000000000000000"), 18, "1"},
		{wei("1"), 18, "0.000000000000000001"},
		{wei("0"), 18, "0"},
		{wei("-250"), 2, "-2.5"},
		{wei("12345"), 0, "12345"},
		{nil, 18, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contract.FormatUnits(tt.raw, tt.decimals))
	}
}
