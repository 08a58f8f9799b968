package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

// ErrTxNotMined is returned by WaitForReceipt when the timeout expires first.
var ErrTxNotMined = errors.New("transaction not mined")

// ErrTxReverted is returned by WaitForReceipt when the receipt status is 0.
var ErrTxReverted = errors.New("transaction reverted")

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// EVMClient is a minimal JSON-RPC client for EVM chains.
type EVMClient struct {
	url          string
	client       *http.Client
	pollInterval time.Duration
	nextID       atomic.Int64
}

// Option configures an EVMClient.
type Option func(*EVMClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *EVMClient) { c.client = hc }
}

// WithPollInterval sets how often WaitForReceipt polls for a receipt.
func WithPollInterval(d time.Duration) Option {
	return func(c *EVMClient) { c.pollInterval = d }
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string, opts ...Option) *EVMClient {
	c := &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		pollInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	var hex hexutil.Uint64
	if err := c.call(ctx, &hex, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(hex), nil
}

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	var hex hexutil.Big
	if err := c.call(ctx, &hex, "eth_chainId"); err != nil {
		return nil, err
	}
	return hex.ToInt(), nil
}

// CallContract executes a read-only eth_call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, to string, data []byte) ([]byte, error) {
	var out hexutil.Bytes
	msg := callMsg{To: to, Data: hexutil.Bytes(data)}
	if err := c.call(ctx, &out, "eth_call", msg, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// SimulateCall runs eth_call with a from address. Returns (true, returnData, nil)
// on success or (false, revertReason, nil) if the call reverts. Transport
// errors return (false, "", err).
func (c *EVMClient) SimulateCall(ctx context.Context, from, to string, data []byte) (bool, string, error) {
	var out hexutil.Bytes
	msg := callMsg{From: from, To: to, Data: hexutil.Bytes(data)}
	err := c.call(ctx, &out, "eth_call", msg, "latest")
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && isRevert(rpcErr.Message) {
			return false, extractRevertReason(rpcErr.Message), nil
		}
		return false, "", err
	}
	return true, out.String(), nil
}

// EstimateGas estimates gas for a call from from to to with data.
func (c *EVMClient) EstimateGas(ctx context.Context, from, to string, data []byte) (uint64, error) {
	var gas hexutil.Uint64
	msg := callMsg{From: from, To: to, Data: hexutil.Bytes(data)}
	if err := c.call(ctx, &gas, "eth_estimateGas", msg, "latest"); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

// GasPrice returns the current gas price in wei.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	var gp hexutil.Big
	if err := c.call(ctx, &gp, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return gp.ToInt(), nil
}

// PendingNonce returns the transaction count including queued transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, address string) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_getTransactionCount", address, "pending"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// SendRawTransaction broadcasts a signed raw transaction and returns its hash.
func (c *EVMClient) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	var hash string
	if err := c.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return "", err
	}
	return hash, nil
}

// GetCode returns the bytecode at an address. "0x" means no contract.
func (c *EVMClient) GetCode(ctx context.Context, address string) (string, error) {
	var code string
	if err := c.call(ctx, &code, "eth_getCode", address, "latest"); err != nil {
		return "", err
	}
	return code, nil
}

// TxReceipt holds the on-chain receipt of a mined transaction.
type TxReceipt struct {
	Hash        string
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
	Logs        []LogEntry
}

// TransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) TransactionReceipt(ctx context.Context, hash string) (*TxReceipt, error) {
	var r *struct {
		Status      hexutil.Uint64 `json:"status"`
		BlockNumber hexutil.Uint64 `json:"blockNumber"`
		GasUsed     hexutil.Uint64 `json:"gasUsed"`
		Logs        []LogEntry     `json:"logs"`
	}
	if err := c.call(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return &TxReceipt{
		Hash:        hash,
		Status:      uint64(r.Status),
		BlockNumber: uint64(r.BlockNumber),
		GasUsed:     uint64(r.GasUsed),
		Logs:        r.Logs,
	}, nil
}

// WaitForReceipt polls until the transaction is mined, ctx is done or timeout
// expires. A reverted transaction returns its receipt and ErrTxReverted.
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash string, timeout time.Duration) (*TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, hash)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrTxReverted, hash)
			}
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s within %s", ErrTxNotMined, hash, timeout)
		case <-ticker.C:
		}
	}
}

// LogEntry holds one event log.
type LogEntry struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
	TxHash      string   `json:"transactionHash"`
	LogIndex    string   `json:"logIndex"`
}

// Block returns the log's block number, or 0 when it is missing or malformed.
func (l LogEntry) Block() uint64 {
	n, err := hexutil.DecodeUint64(l.BlockNumber)
	if err != nil {
		return 0
	}
	return n
}

// Index returns the log's position in its block.
func (l LogEntry) Index() uint64 {
	n, err := hexutil.DecodeUint64(l.LogIndex)
	if err != nil {
		return 0
	}
	return n
}

// LogFilter is an eth_getLogs filter. Topics holds topic0 alternatives.
type LogFilter struct {
	Address   string
	FromBlock uint64
	ToBlock   uint64 // 0 = latest
	Topics    []string
}

// GetLogs queries event logs matching the given filter.
func (c *EVMClient) GetLogs(ctx context.Context, f LogFilter) ([]LogEntry, error) {
	filter := map[string]any{
		"address":   f.Address,
		"fromBlock": hexutil.EncodeUint64(f.FromBlock),
		"toBlock":   "latest",
	}
	if f.ToBlock > 0 {
		filter["toBlock"] = hexutil.EncodeUint64(f.ToBlock)
	}
	if len(f.Topics) > 0 {
		filter["topics"] = []any{f.Topics}
	}

	var logs []LogEntry
	if err := c.call(ctx, &logs, "eth_getLogs", filter); err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}
	return logs, nil
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

// --- internal JSON-RPC plumbing ---

type callMsg struct {
	From string        `json:"from,omitempty"`
	To   string        `json:"to"`
	Data hexutil.Bytes `json:"data,omitempty"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (c *EVMClient) call(ctx context.Context, out any, method string, params ...any) error {
	if params == nil {
		params = []any{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	log := logging.L().WithFields(logrus.Fields{"rpc": c.url, "method": method})
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("rpc request failed")
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parsing response (HTTP %d): %w", resp.StatusCode, err)
	}
	log = log.WithField("elapsed", time.Since(start))

	if rpcResp.Error != nil {
		log.WithField("code", rpcResp.Error.Code).Debug(rpcResp.Error.Message)
		return rpcResp.Error
	}
	log.Debug("rpc ok")

	if len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("parsing %s result: %w", method, err)
	}
	return nil
}

func isRevert(msg string) bool {
	return strings.Contains(msg, "revert") || strings.Contains(msg, "execution")
}

// extractRevertReason tries to pull the revert reason out of an RPC error message.
func extractRevertReason(errMsg string) string {
	// Common pattern: "execution reverted: <reason>"
	if idx := strings.Index(errMsg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx:])
	}
	if idx := strings.Index(errMsg, "revert"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx:])
	}
	return errMsg
}
