package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidDescriptor wraps every problem reported by Descriptor.Validate.
var ErrInvalidDescriptor = errors.New("invalid contract descriptor")

// ErrFunctionNotFound is returned when a function is not in the ABI.
var ErrFunctionNotFound = errors.New("function not found in ABI")

// ErrEventNotFound is returned when an event is not in the ABI.
var ErrEventNotFound = errors.New("event not found in ABI")

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ParamTypes lists the parameter type tags a descriptor may use.
var ParamTypes = []string{
	"address", "address[]",
	"bool", "bool[]",
	"string", "string[]",
	"bytes", "bytes32", "bytes32[]",
	"uint8", "uint16", "uint32", "uint64", "uint128", "uint256", "uint256[]",
	"int256", "int256[]",
}

// Descriptor is a deployed contract: its address and its ABI. It is built
// once and never mutated; accessors hand out copies.
type Descriptor struct {
	name    string
	address string
	abi     []ABIEntry

	once     sync.Once
	parsed   abi.ABI
	parseErr error
}

// NewDescriptor builds a descriptor. name is the key the descriptor is
// exported under (e.g. "token").
func NewDescriptor(name, address string, entries []ABIEntry) *Descriptor {
	return &Descriptor{name: name, address: address, abi: slices.Clone(entries)}
}

// Name returns the export key.
func (d *Descriptor) Name() string { return d.name }

// Address returns the contract address exactly as declared.
func (d *Descriptor) Address() string { return d.address }

// ABI returns a copy of the ordered ABI entries.
func (d *Descriptor) ABI() []ABIEntry { return slices.Clone(d.abi) }

// Function returns the function entry called name.
func (d *Descriptor) Function(name string) (ABIEntry, error) {
	for _, e := range d.abi {
		if e.Type == KindFunction && e.Name == name {
			return e, nil
		}
	}
	return ABIEntry{}, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
}

// Event returns the event entry called name.
func (d *Descriptor) Event(name string) (ABIEntry, error) {
	for _, e := range d.abi {
		if e.Type == KindEvent && e.Name == name {
			return e, nil
		}
	}
	return ABIEntry{}, fmt.Errorf("%w: %q", ErrEventNotFound, name)
}

// Constructor returns the constructor entry, if declared.
func (d *Descriptor) Constructor() (ABIEntry, bool) {
	for _, e := range d.abi {
		if e.Type == KindConstructor {
			return e, true
		}
	}
	return ABIEntry{}, false
}

// Functions returns all function entries in declaration order.
func (d *Descriptor) Functions() []ABIEntry {
	return d.filter(func(e ABIEntry) bool { return e.Type == KindFunction })
}

// Events returns all event entries in declaration order.
func (d *Descriptor) Events() []ABIEntry {
	return d.filter(func(e ABIEntry) bool { return e.Type == KindEvent })
}

// ReadFunctions returns the view/pure functions.
func (d *Descriptor) ReadFunctions() []ABIEntry {
	return d.filter(ABIEntry.IsReadFunction)
}

// WriteFunctions returns the state-changing functions.
func (d *Descriptor) WriteFunctions() []ABIEntry {
	return d.filter(ABIEntry.IsWriteFunction)
}

func (d *Descriptor) filter(keep func(ABIEntry) bool) []ABIEntry {
	var out []ABIEntry
	for _, e := range d.abi {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the structural properties of the descriptor: a
// well-formed (and, when mixed-case, EIP-55 checksummed) address, a known
// kind and a name on every entry, known mutabilities and known parameter
// types. All problems are reported together.
func (d *Descriptor) Validate() error {
	var errs []error

	if err := ValidateAddress(d.address); err != nil {
		errs = append(errs, err)
	}
	if len(d.abi) == 0 {
		errs = append(errs, errors.New("abi is empty"))
	}

	constructors := 0
	for i, e := range d.abi {
		where := fmt.Sprintf("abi[%d]", i)
		if e.Name != "" {
			where += " " + e.Name
		}

		switch e.Type {
		case KindEvent:
			if e.Name == "" {
				errs = append(errs, fmt.Errorf("%s: event has no name", where))
			}
		case KindFunction:
			if e.Name == "" {
				errs = append(errs, fmt.Errorf("%s: function has no name", where))
			}
			if !knownMutability(e.StateMutability) {
				errs = append(errs, fmt.Errorf("%s: unknown stateMutability %q", where, e.StateMutability))
			}
		case KindConstructor:
			constructors++
			if e.StateMutability != MutabilityNonpayable && e.StateMutability != MutabilityPayable {
				errs = append(errs, fmt.Errorf("%s: constructor stateMutability %q", where, e.StateMutability))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown entry type %q", where, e.Type))
		}

		for j, p := range e.Inputs {
			if err := validateParam(p); err != nil {
				errs = append(errs, fmt.Errorf("%s input %d: %w", where, j, err))
			}
			if p.Indexed && e.Type != KindEvent {
				errs = append(errs, fmt.Errorf("%s input %d: only event inputs can be indexed", where, j))
			}
		}
		for j, p := range e.Outputs {
			if err := validateParam(p); err != nil {
				errs = append(errs, fmt.Errorf("%s output %d: %w", where, j, err))
			}
		}
	}
	if constructors > 1 {
		errs = append(errs, fmt.Errorf("%d constructors declared", constructors))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidDescriptor, errors.Join(errs...))
}

// ValidateAddress checks that a is 0x + 40 hex digits and, when it mixes
// upper and lower case, that the case encodes a valid EIP-55 checksum.
func ValidateAddress(a string) error {
	if !addressPattern.MatchString(a) {
		return fmt.Errorf("address %q is not 0x followed by 40 hex digits", a)
	}
	body := a[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}
	if want := common.HexToAddress(a).Hex(); want != a {
		return fmt.Errorf("address %q has a bad checksum (want %s)", a, want)
	}
	return nil
}

func validateParam(p ABIParam) error {
	if p.Type == "" {
		return errors.New("empty type")
	}
	if !slices.Contains(ParamTypes, p.Type) {
		return fmt.Errorf("unsupported type %q", p.Type)
	}
	return nil
}

func knownMutability(m string) bool {
	switch m {
	case MutabilityView, MutabilityPure, MutabilityNonpayable, MutabilityPayable:
		return true
	}
	return false
}

// Parsed returns the descriptor as a go-ethereum ABI. The result is memoised.
func (d *Descriptor) Parsed() (abi.ABI, error) {
	d.once.Do(func() {
		raw, err := d.ABIJSON()
		if err != nil {
			d.parseErr = err
			return
		}
		d.parsed, d.parseErr = abi.JSON(bytes.NewReader(raw))
	})
	return d.parsed, d.parseErr
}

// ABIJSON returns the ABI array in the standard JSON format.
func (d *Descriptor) ABIJSON() ([]byte, error) {
	return json.Marshal(d.abi)
}

type descriptorJSON struct {
	Address string     `json:"address"`
	ABI     []ABIEntry `json:"abi"`
}

// MarshalJSON encodes {"address": ..., "abi": [...]}.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorJSON{Address: d.address, ABI: d.abi})
}

// UnmarshalJSON decodes a document written by MarshalJSON. The export name is
// not part of the document and is left unchanged.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var in descriptorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.address = in.Address
	d.abi = in.ABI
	d.once = sync.Once{}
	d.parsed, d.parseErr = abi.ABI{}, nil
	return nil
}

// Bundle is a set of descriptors exported together, serialised as
// {"address": {name: addr}, "abi": {name: [...]}}.
type Bundle []*Descriptor

// MarshalJSON implements json.Marshaler.
func (b Bundle) MarshalJSON() ([]byte, error) {
	addrs := make(map[string]string, len(b))
	abis := make(map[string][]ABIEntry, len(b))
	for _, d := range b {
		addrs[d.name] = d.address
		abis[d.name] = d.abi
	}
	return json.Marshal(struct {
		Address map[string]string     `json:"address"`
		ABI     map[string][]ABIEntry `json:"abi"`
	}{addrs, abis})
}

// UnmarshalJSON implements json.Unmarshaler. Descriptors come back sorted by
// name; a name with an address but no ABI (or the reverse) is an error.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var in struct {
		Address map[string]string     `json:"address"`
		ABI     map[string][]ABIEntry `json:"abi"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	names := make([]string, 0, len(in.Address))
	for name := range in.Address {
		if _, ok := in.ABI[name]; !ok {
			return fmt.Errorf("bundle: %q has an address but no abi", name)
		}
		names = append(names, name)
	}
	for name := range in.ABI {
		if _, ok := in.Address[name]; !ok {
			return fmt.Errorf("bundle: %q has an abi but no address", name)
		}
	}
	slices.Sort(names)

	out := make(Bundle, 0, len(names))
	for _, name := range names {
		out = append(out, NewDescriptor(name, in.Address[name], in.ABI[name]))
	}
	*b = out
	return nil
}
