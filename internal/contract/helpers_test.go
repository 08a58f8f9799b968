package contract_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/devfund/internal/chain"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int64             `json:"id"`
}

type rpcFailure struct {
	Code    int
	Message string
}

// mockNode serves fixed results per JSON-RPC method. A func(rpcCall) any
// computes the result from the request, a rpcFailure value is returned as a
// JSON-RPC error and unknown methods get -32601.
type mockNode struct {
	mu    sync.Mutex
	calls []rpcCall
}

func (m *mockNode) seen(method string) []rpcCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []rpcCall
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func newMockNode(t *testing.T, responses map[string]any) (*mockNode, *chain.EVMClient) {
	t.Helper()
	m := &mockNode{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcCall
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		m.mu.Lock()
		m.calls = append(m.calls, req)
		m.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch v := responses[req.Method].(type) {
		case nil:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		case func(rpcCall) any:
			resp["result"] = v(req)
		case rpcFailure:
			resp["error"] = map[string]any{"code": v.Code, "message": v.Message}
		default:
			resp["result"] = v
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return m, chain.NewEVMClient(srv.URL)
}

// callParams decodes the transaction object of an eth_call/eth_estimateGas.
func callParams(t *testing.T, c rpcCall) map[string]string {
	t.Helper()
	var msg map[string]string
	if err := json.Unmarshal(c.Params[0], &msg); err != nil {
		t.Fatalf("decoding call params: %v", err)
	}
	return msg
}
