package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrArgCount is returned when a call gets the wrong number of arguments.
var ErrArgCount = errors.New("wrong number of arguments")

// ErrEmptyResult is returned when eth_call returns no data for a function
// that declares outputs, which usually means there is no contract there.
var ErrEmptyResult = errors.New("empty call result (is there a contract at this address?)")

// PackCall returns selector + ABI-encoded arguments for function name.
// Arguments are given as strings, see ParseArg.
func (d *Descriptor) PackCall(name string, args ...string) ([]byte, error) {
	parsed, err := d.Parsed()
	if err != nil {
		return nil, err
	}
	m, ok := parsed.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	vals, err := ParseArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return parsed.Pack(name, vals...)
}

// PackConstructor ABI-encodes constructor arguments (no selector).
func (d *Descriptor) PackConstructor(args ...string) ([]byte, error) {
	parsed, err := d.Parsed()
	if err != nil {
		return nil, err
	}
	vals, err := ParseArgs(parsed.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("constructor: %w", err)
	}
	return parsed.Pack("", vals...)
}

// UnpackOutputs decodes the return data of function name into display strings,
// one per declared output.
func (d *Descriptor) UnpackOutputs(name string, data []byte) ([]string, error) {
	values, err := d.unpack(name, data)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatValue(v)
	}
	return out, nil
}

func (d *Descriptor) unpack(name string, data []byte) ([]any, error) {
	parsed, err := d.Parsed()
	if err != nil {
		return nil, err
	}
	m, ok := parsed.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	if len(m.Outputs) == 0 {
		return nil, nil
	}
	if len(data) == 0 {
		return nil, ErrEmptyResult
	}
	return m.Outputs.Unpack(data)
}

// ParseArgs converts one string per argument into the Go values abi.Pack
// expects.
func ParseArgs(inputs abi.Arguments, args []string) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArgCount, len(inputs), len(args))
	}
	vals := make([]any, len(args))
	for i, in := range inputs {
		v, err := ParseArg(in.Type, args[i])
		if err != nil {
			label := in.Name
			if label == "" {
				label = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", label, in.Type.String(), err)
		}
		vals[i] = v
	}
	return vals, nil
}

// ParseArg converts raw into a value of ABI type t.
//
//	address         0x-prefixed hex, checksum not required
//	uintN / intN    decimal or 0x hex
//	bool            true/false/1/0
//	bytes / bytesN  0x-prefixed hex
//	T[] / T[k]      "a,b,c" or a JSON array
func ParseArg(t abi.Type, raw string) (any, error) {
	raw = strings.TrimSpace(raw)

	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		return common.HexToAddress(raw), nil

	case abi.UintTy, abi.IntTy:
		return parseInteger(t, raw)

	case abi.BoolTy:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", raw)
		}
		return b, nil

	case abi.StringTy:
		return raw, nil

	case abi.BytesTy:
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes %q: %w", raw, err)
		}
		return b, nil

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes%d %q: %w", t.Size, raw, err)
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), t.Size)
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		items, err := splitList(raw)
		if err != nil {
			return nil, err
		}
		var v reflect.Value
		if t.T == abi.ArrayTy {
			if len(items) != t.Size {
				return nil, fmt.Errorf("want %d elements, got %d", t.Size, len(items))
			}
			v = reflect.New(t.GetType()).Elem()
		} else {
			v = reflect.MakeSlice(t.GetType(), len(items), len(items))
		}
		for i, item := range items {
			el, err := ParseArg(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			v.Index(i).Set(reflect.ValueOf(el))
		}
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("unsupported type %s", t.String())
}

func parseInteger(t abi.Type, raw string) (any, error) {
	n := new(big.Int)
	var ok bool
	switch {
	case strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X"):
		_, ok = n.SetString(raw[2:], 16)
	default:
		_, ok = n.SetString(raw, 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", raw)
	}

	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("%s cannot be negative", t.String())
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s overflows %s", raw, t.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s overflows %s", raw, t.String())
		}
	}

	// go-ethereum wants sized Go integers up to 64 bits and *big.Int above.
	rt := t.GetType()
	switch rt.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := reflect.New(rt).Elem()
		v.SetUint(n.Uint64())
		return v.Interface(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := reflect.New(rt).Elem()
		v.SetInt(n.Int64())
		return v.Interface(), nil
	}
	return n, nil
}

// splitList accepts "a,b,c", "[a,b,c]" with bare items, or a JSON array.
func splitList(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return []string{}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			out := make([]string, len(items))
			for i, it := range items {
				var s string
				if json.Unmarshal(it, &s) == nil {
					out[i] = s
				} else {
					out[i] = string(it)
				}
			}
			return out, nil
		}
		if !strings.HasSuffix(raw, "]") {
			return nil, fmt.Errorf("unterminated list %q", raw)
		}
		raw = raw[1 : len(raw)-1]
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

// FormatValue renders a decoded ABI value for display: checksummed
// addresses, decimal integers, 0x-hex bytes, lists as [a, b].
func FormatValue(v any) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case *big.Int:
		return x.String()
	case []byte:
		return hexutil.Encode(x)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Encode(b)
		}
		fallthrough
	case reflect.Slice:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

// DecodeCall matches the selector at the start of data against this
// descriptor's functions and decodes the arguments.
func (d *Descriptor) DecodeCall(data []byte) (string, []Field, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	parsed, err := d.Parsed()
	if err != nil {
		return "", nil, err
	}
	m, err := parsed.MethodById(data[:4])
	if err != nil {
		return "", nil, fmt.Errorf("%w: selector %s", ErrFunctionNotFound, hexutil.Encode(data[:4]))
	}
	vals, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return m.Name, nil, fmt.Errorf("%s: decoding arguments: %w", m.Name, err)
	}
	fields := make([]Field, len(vals))
	for i, in := range m.Inputs {
		fields[i] = Field{Name: in.Name, Type: in.Type.String(), Value: vals[i]}
	}
	return m.Name, fields, nil
}
