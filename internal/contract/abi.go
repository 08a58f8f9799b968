package contract

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Entry kinds.
const (
	KindEvent       = "event"
	KindFunction    = "function"
	KindConstructor = "constructor"
)

// State mutability classes.
const (
	MutabilityView       = "view"
	MutabilityPure       = "pure"
	MutabilityNonpayable = "nonpayable"
	MutabilityPayable    = "payable"
)

// ABIEntry is one ABI entry: an event, a function or the constructor.
type ABIEntry struct {
	Type            string
	Name            string
	Inputs          []ABIParam
	Outputs         []ABIParam
	StateMutability string
	Anonymous       bool
}

// ABIParam is a parameter in an ABI entry. Indexed is only meaningful for
// event inputs.
type ABIParam struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	InternalType string `json:"internalType,omitempty"`
	Indexed      bool   `json:"indexed,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == KindFunction &&
		(e.StateMutability == MutabilityView || e.StateMutability == MutabilityPure)
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == KindFunction &&
		(e.StateMutability == MutabilityNonpayable || e.StateMutability == MutabilityPayable)
}

// Signature returns the canonical form used for hashing, e.g.
// "updateDeveloper(address,uint256)".
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.Type
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 4-byte function selector as 0x-prefixed hex.
func (e ABIEntry) Selector() string {
	return "0x" + hex.EncodeToString(keccak([]byte(e.Signature()))[:4])
}

// Topic returns the event's topic0 as 0x-prefixed hex.
func (e ABIEntry) Topic() string {
	return "0x" + hex.EncodeToString(keccak([]byte(e.Signature())))
}

func keccak(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

// --- JSON ---
//
// Entries serialise in the standard interface-description shape: events carry
// "anonymous" and an "indexed" flag on every input; functions always carry
// "outputs" and "stateMutability"; the constructor has no name or outputs.

type paramJSON struct {
	Indexed      *bool  `json:"indexed,omitempty"`
	InternalType string `json:"internalType,omitempty"`
	Name         string `json:"name"`
	Type         string `json:"type"`
}

type entryJSON struct {
	Anonymous       *bool       `json:"anonymous,omitempty"`
	Inputs          []paramJSON `json:"inputs"`
	Name            *string     `json:"name,omitempty"`
	Outputs         []paramJSON `json:"outputs,omitempty"`
	StateMutability string      `json:"stateMutability,omitempty"`
	Type            string      `json:"type"`
}

// MarshalJSON implements json.Marshaler.
func (e ABIEntry) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case KindEvent:
		return json.Marshal(struct {
			Anonymous bool        `json:"anonymous"`
			Inputs    []paramJSON `json:"inputs"`
			Name      string      `json:"name"`
			Type      string      `json:"type"`
		}{e.Anonymous, toParamJSON(e.Inputs, true), e.Name, e.Type})
	case KindConstructor:
		return json.Marshal(struct {
			Inputs          []paramJSON `json:"inputs"`
			StateMutability string      `json:"stateMutability"`
			Type            string      `json:"type"`
		}{toParamJSON(e.Inputs, false), e.StateMutability, e.Type})
	default:
		return json.Marshal(struct {
			Inputs          []paramJSON `json:"inputs"`
			Name            string      `json:"name"`
			Outputs         []paramJSON `json:"outputs"`
			StateMutability string      `json:"stateMutability"`
			Type            string      `json:"type"`
		}{toParamJSON(e.Inputs, false), e.Name, toParamJSON(e.Outputs, false), e.StateMutability, e.Type})
	}
}

// UnmarshalJSON implements json.Unmarshaler. A missing "type" defaults to
// "function", as in the ABI format. Inputs are never nil after decoding, and
// neither are a function's outputs.
func (e *ABIEntry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = ABIEntry{
		Type:            in.Type,
		Inputs:          fromParamJSON(in.Inputs),
		StateMutability: in.StateMutability,
	}
	if e.Type == "" {
		e.Type = KindFunction
	}
	if in.Name != nil {
		e.Name = *in.Name
	}
	if in.Anonymous != nil {
		e.Anonymous = *in.Anonymous
	}
	if e.Type == KindFunction {
		e.Outputs = fromParamJSON(in.Outputs)
	}
	return nil
}

func toParamJSON(params []ABIParam, withIndexed bool) []paramJSON {
	out := make([]paramJSON, len(params))
	for i, p := range params {
		out[i] = paramJSON{InternalType: p.InternalType, Name: p.Name, Type: p.Type}
		if withIndexed {
			idx := p.Indexed
			out[i].Indexed = &idx
		}
	}
	return out
}

func fromParamJSON(params []paramJSON) []ABIParam {
	out := make([]ABIParam, len(params))
	for i, p := range params {
		out[i] = ABIParam{Name: p.Name, Type: p.Type, InternalType: p.InternalType}
		if p.Indexed != nil {
			out[i].Indexed = *p.Indexed
		}
	}
	return out
}
