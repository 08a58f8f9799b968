package chain

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int64             `json:"id"`
}

// rpcMock creates a test HTTP server that serves a fixed JSON-RPC response
// per method. Any unknown method returns an RPC error. Every request is
// recorded in *seen when seen is non-nil.
func rpcMock(t *testing.T, responses map[string]any, seen *[]rpcCall) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcCall
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if seen != nil {
			*seen = append(*seen, req)
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := responses[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32601, "message": "method not found"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// rpcErrorServer always returns the given JSON-RPC error.
func rpcErrorServer(t *testing.T, code int, msg string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": code, "message": msg},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// simple getters
// ---------------------------------------------------------------------------

func TestBlockNumber(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_blockNumber": "0x10"}, nil)
	n, err := NewEVMClient(srv.URL).BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n)
}

func TestChainID(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_chainId": "0x38"}, nil)
	id, err := NewEVMClient(srv.URL).ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(56), id)
}

func TestGasPrice(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_gasPrice": "0x3b9aca00"}, nil)
	gp, err := NewEVMClient(srv.URL).GasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000_000), gp)
}

func TestPendingNonceUsesPendingTag(t *testing.T) {
	var seen []rpcCall
	srv := rpcMock(t, map[string]any{"eth_getTransactionCount": "0x7"}, &seen)
	n, err := NewEVMClient(srv.URL).PendingNonce(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)
	require.Len(t, seen, 1)
	require.Len(t, seen[0].Params, 2)
	assert.JSONEq(t, `"pending"`, string(seen[0].Params[1]))
}

func TestGetCode(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_getCode": "0x6080"}, nil)
	code, err := NewEVMClient(srv.URL).GetCode(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "0x6080", code)
}

func TestEstimateGas(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_estimateGas": "0x5208"}, nil)
	gas, err := NewEVMClient(srv.URL).EstimateGas(context.Background(), "0xfrom", "0xto", []byte{0x4e, 0x71, 0xd9, 0x2d})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)
}

// ---------------------------------------------------------------------------
// eth_call
// ---------------------------------------------------------------------------

func TestCallContractSendsCalldata(t *testing.T) {
	var seen []rpcCall
	srv := rpcMock(t, map[string]any{"eth_call": "0x" + "00000000000000000000000000000000000000000000000000000000000000ff"}, &seen)

	out, err := NewEVMClient(srv.URL).CallContract(context.Background(), "0xcontract", []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	require.Len(t, out, 32)
	assert.Equal(t, byte(0xff), out[31])

	require.Len(t, seen, 1)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(seen[0].Params[0], &msg))
	assert.Equal(t, "0xcontract", msg["to"])
	assert.Equal(t, "0xdeadbeef", msg["data"])
	_, hasFrom := msg["from"]
	assert.False(t, hasFrom)
}

func TestCallContractRPCErrorIsTyped(t *testing.T) {
	srv := rpcErrorServer(t, -32000, "header not found")
	_, err := NewEVMClient(srv.URL).CallContract(context.Background(), "0xc", nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32000, rpcErr.Code)
	assert.Equal(t, "header not found", rpcErr.Message)
}

func TestSimulateCallSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_call": "0x"}, nil)
	ok, data, err := NewEVMClient(srv.URL).SimulateCall(context.Background(), "0xfrom", "0xto", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0x", data)
}

func TestSimulateCallRevert(t *testing.T) {
	srv := rpcErrorServer(t, 3, "execution reverted: Not a developer")
	ok, reason, err := NewEVMClient(srv.URL).SimulateCall(context.Background(), "0xfrom", "0xto", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "execution reverted: Not a developer", reason)
}

func TestSimulateCallOtherRPCError(t *testing.T) {
	srv := rpcErrorServer(t, -32601, "method not found")
	ok, _, err := NewEVMClient(srv.URL).SimulateCall(context.Background(), "0xfrom", "0xto", nil)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestExtractRevertReason(t *testing.T) {
	assert.Equal(t, "execution reverted: nope", extractRevertReason("VM error: execution reverted: nope"))
	assert.Equal(t, "reverted", extractRevertReason("tx reverted"))
	assert.Equal(t, "weird", extractRevertReason("weird"))
}

// ---------------------------------------------------------------------------
// transactions
// ---------------------------------------------------------------------------

func TestSendRawTransaction(t *testing.T) {
	var seen []rpcCall
	srv := rpcMock(t, map[string]any{"eth_sendRawTransaction": "0xhash"}, &seen)
	hash, err := NewEVMClient(srv.URL).SendRawTransaction(context.Background(), []byte{0x02, 0xf8})
	require.NoError(t, err)
	assert.Equal(t, "0xhash", hash)
	assert.JSONEq(t, `"0x02f8"`, string(seen[0].Params[0]))
}

func TestTransactionReceiptPending(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_getTransactionReceipt": nil}, nil)
	r, err := NewEVMClient(srv.URL).TransactionReceipt(context.Background(), "0xhash")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestTransactionReceiptMined(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_getTransactionReceipt": map[string]any{
		"status":      "0x1",
		"blockNumber": "0x64",
		"gasUsed":     "0xc350",
		"logs": []map[string]any{{
			"address": "0xc", "topics": []string{"0xt"}, "data": "0x",
			"blockNumber": "0x64", "transactionHash": "0xhash", "logIndex": "0x2",
		}},
	}}, nil)
	r, err := NewEVMClient(srv.URL).TransactionReceipt(context.Background(), "0xhash")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, uint64(1), r.Status)
	assert.Equal(t, uint64(100), r.BlockNumber)
	assert.Equal(t, uint64(50000), r.GasUsed)
	require.Len(t, r.Logs, 1)
	assert.Equal(t, uint64(2), r.Logs[0].Index())
}

func TestWaitForReceiptPollsUntilMined(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcCall
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		var result any
		if calls.Add(1) >= 3 {
			result = map[string]any{"status": "0x1", "blockNumber": "0x1", "gasUsed": "0x1"}
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result}) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewEVMClient(srv.URL, WithPollInterval(5*time.Millisecond))
	r, err := c.WaitForReceipt(context.Background(), "0xhash", time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Status)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForReceiptReverted(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_getTransactionReceipt": map[string]any{
		"status": "0x0", "blockNumber": "0x1", "gasUsed": "0x1",
	}}, nil)
	r, err := NewEVMClient(srv.URL).WaitForReceipt(context.Background(), "0xhash", time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxReverted)
	require.NotNil(t, r)
}

func TestWaitForReceiptTimeout(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_getTransactionReceipt": nil}, nil)
	c := NewEVMClient(srv.URL, WithPollInterval(5*time.Millisecond))
	_, err := c.WaitForReceipt(context.Background(), "0xhash", 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrTxNotMined)
}

// ---------------------------------------------------------------------------
// logs
// ---------------------------------------------------------------------------

func TestGetLogsFilter(t *testing.T) {
	var seen []rpcCall
	srv := rpcMock(t, map[string]any{"eth_getLogs": []map[string]any{
		{"address": "0xc", "topics": []string{"0xt0"}, "data": "0x", "blockNumber": "0xa", "transactionHash": "0xh", "logIndex": "0x0"},
	}}, &seen)

	logs, err := NewEVMClient(srv.URL).GetLogs(context.Background(), LogFilter{
		Address:   "0xc",
		FromBlock: 10,
		Topics:    []string{"0xt0", "0xt1"},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uint64(10), logs[0].Block())

	var filter map[string]any
	require.NoError(t, json.Unmarshal(seen[0].Params[0], &filter))
	assert.Equal(t, "0xa", filter["fromBlock"])
	assert.Equal(t, "latest", filter["toBlock"])
	assert.Equal(t, []any{[]any{"0xt0", "0xt1"}}, filter["topics"])
}

func TestGetLogsExplicitRange(t *testing.T) {
	var seen []rpcCall
	srv := rpcMock(t, map[string]any{"eth_getLogs": []any{}}, &seen)

	_, err := NewEVMClient(srv.URL).GetLogs(context.Background(), LogFilter{Address: "0xc", FromBlock: 1, ToBlock: 255})
	require.NoError(t, err)

	var filter map[string]any
	require.NoError(t, json.Unmarshal(seen[0].Params[0], &filter))
	assert.Equal(t, "0xff", filter["toBlock"])
	_, hasTopics := filter["topics"]
	assert.False(t, hasTopics)
}

func TestLogEntryMalformedNumbers(t *testing.T) {
	l := LogEntry{BlockNumber: "nope", LogIndex: ""}
	assert.Equal(t, uint64(0), l.Block())
	assert.Equal(t, uint64(0), l.Index())
}

// ---------------------------------------------------------------------------
// transport failures
// ---------------------------------------------------------------------------

func TestBadJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not valid json`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).BlockNumber(context.Background())
	assert.ErrorContains(t, err, "parsing response")
}

func TestUnreachableEndpoint(t *testing.T) {
	_, err := NewEVMClient("http://127.0.0.1:1").BlockNumber(context.Background())
	assert.ErrorContains(t, err, "RPC request failed")
}

func TestPing(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_blockNumber": "0x2a"}, nil)
	latency, block, err := NewEVMClient(srv.URL).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), block)
	assert.Greater(t, latency, time.Duration(0))
}
