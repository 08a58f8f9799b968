package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// ErrNotReadFunction is returned when Call is used on a state-changing function.
var ErrNotReadFunction = errors.New("not a read function")

// Caller calls read-only (view/pure) contract functions.
type Caller struct {
	client  *chain.EVMClient
	desc    *Descriptor
	address string
}

// NewCaller binds desc to client. address overrides the descriptor's own
// address when non-empty.
func NewCaller(client *chain.EVMClient, desc *Descriptor, address string) *Caller {
	if address == "" {
		address = desc.Address()
	}
	return &Caller{client: client, desc: desc, address: address}
}

// Address returns the contract address calls are sent to.
func (c *Caller) Address() string { return c.address }

// Call calls a read function and returns its outputs as display strings.
func (c *Caller) Call(ctx context.Context, funcName string, args ...string) ([]string, error) {
	data, err := c.raw(ctx, funcName, args...)
	if err != nil {
		return nil, err
	}
	decoded, err := c.desc.UnpackOutputs(funcName, data)
	if err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return decoded, nil
}

func (c *Caller) raw(ctx context.Context, funcName string, args ...string) ([]byte, error) {
	fn, err := c.desc.Function(funcName)
	if err != nil {
		return nil, err
	}
	if !fn.IsReadFunction() {
		return nil, fmt.Errorf("%w: %q (stateMutability: %s)", ErrNotReadFunction, funcName, fn.StateMutability)
	}

	calldata, err := c.desc.PackCall(funcName, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	logging.L().WithFields(logrus.Fields{"contract": c.address, "function": fn.Signature()}).Debug("eth_call")
	result, err := c.client.CallContract(ctx, c.address, calldata)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}
	return result, nil
}

// DeveloperInfo is the decoded msnDevelopers(address) record.
type DeveloperInfo struct {
	Address          common.Address
	IsDeveloper      bool
	MonthlyAllowance *big.Int
	TxCount          *big.Int
	TotalClaimed     *big.Int
	JoinedAt         time.Time // zero when joinedAtTime is 0
}

// Developer reads the fund's record for dev.
func (c *Caller) Developer(ctx context.Context, dev string) (*DeveloperInfo, error) {
	data, err := c.raw(ctx, "msnDevelopers", dev)
	if err != nil {
		return nil, err
	}
	vals, err := c.desc.unpack("msnDevelopers", data)
	if err != nil {
		return nil, fmt.Errorf("decoding msnDevelopers: %w", err)
	}
	if len(vals) != 5 {
		return nil, fmt.Errorf("decoding msnDevelopers: want 5 values, got %d", len(vals))
	}

	info := &DeveloperInfo{Address: common.HexToAddress(dev)}
	bad := func(i int) error {
		return fmt.Errorf("decoding msnDevelopers: output %d has type %T", i, vals[i])
	}
	var ok bool
	if info.IsDeveloper, ok = vals[0].(bool); !ok {
		return nil, bad(0)
	}
	if info.MonthlyAllowance, ok = vals[1].(*big.Int); !ok {
		return nil, bad(1)
	}
	if info.TxCount, ok = vals[2].(*big.Int); !ok {
		return nil, bad(2)
	}
	if info.TotalClaimed, ok = vals[3].(*big.Int); !ok {
		return nil, bad(3)
	}
	joined, ok := vals[4].(*big.Int)
	if !ok {
		return nil, bad(4)
	}
	if joined.Sign() > 0 && joined.IsInt64() {
		info.JoinedAt = time.Unix(joined.Int64(), 0).UTC()
	}
	return info, nil
}

// Token reads the fund's payout token address.
func (c *Caller) Token(ctx context.Context) (common.Address, error) {
	data, err := c.raw(ctx, "msnToken")
	if err != nil {
		return common.Address{}, err
	}
	vals, err := c.desc.unpack("msnToken", data)
	if err != nil {
		return common.Address{}, fmt.Errorf("decoding msnToken: %w", err)
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("decoding msnToken: got %T", vals[0])
	}
	return addr, nil
}

// TokenInfo is the ERC-20 metadata of the payout token.
type TokenInfo struct {
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8
}

// TokenMetadata reads name, symbol and decimals of the ERC-20 at token.
func TokenMetadata(ctx context.Context, client *chain.EVMClient, token common.Address) (*TokenInfo, error) {
	b, _ := GetBuiltin("erc20")
	erc20 := NewCaller(client, b.Descriptor(), token.Hex())

	info := &TokenInfo{Address: token}
	for _, fn := range []string{"name", "symbol", "decimals"} {
		data, err := erc20.raw(ctx, fn)
		if err != nil {
			return nil, err
		}
		vals, err := erc20.desc.unpack(fn, data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", fn, err)
		}
		if len(vals) != 1 {
			return nil, fmt.Errorf("decoding %s: want 1 value, got %d", fn, len(vals))
		}
		var ok bool
		switch fn {
		case "name":
			info.Name, ok = vals[0].(string)
		case "symbol":
			info.Symbol, ok = vals[0].(string)
		case "decimals":
			info.Decimals, ok = vals[0].(uint8)
		}
		if !ok {
			return nil, fmt.Errorf("decoding %s: got %T", fn, vals[0])
		}
	}
	return info, nil
}

// FormatUnits renders raw as a decimal with the given number of decimals,
// trimming trailing zeros: FormatUnits(1500000000000000000, 18) = "1.5".
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	if decimals == 0 {
		return raw.String()
	}
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, div, new(big.Int))

	s := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		fs = strings.Repeat("0", int(decimals)-len(fs)) + fs
		for len(fs) > 0 && fs[len(fs)-1] == '0' {
			fs = fs[:len(fs)-1]
		}
		s += "." + fs
	}
	if neg {
		s = "-" + s
	}
	return s
}
