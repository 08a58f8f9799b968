// Package fixtures loads recorded ABIs and JSON-RPC responses for tests.
package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/stretchr/testify/require"
)

func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// LoadABI returns the raw bytes of abis/<filename>.
func LoadABI(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixturesDir(), "abis", filename))
	require.NoError(t, err, "failed to load fixture ABI: %s", filename)
	return data
}

// LoadDescriptor parses abis/<filename> into a descriptor bound to address.
func LoadDescriptor(t *testing.T, name, address, filename string) *contract.Descriptor {
	t.Helper()
	var entries []contract.ABIEntry
	require.NoError(t, json.Unmarshal(LoadABI(t, filename), &entries))
	return contract.NewDescriptor(name, address, entries)
}

// LoadRPCResponses returns rpc/<filename> as a method → result map.
func LoadRPCResponses(t *testing.T, filename string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixturesDir(), "rpc", filename))
	require.NoError(t, err, "failed to load fixture RPC response: %s", filename)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}
