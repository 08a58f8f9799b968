package contract

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrUnknownEvent is returned when a log's first topic matches no event.
var ErrUnknownEvent = errors.New("unknown event")

// Field is one decoded event parameter.
type Field struct {
	Name    string
	Type    string
	Indexed bool
	Value   any
}

// String renders the value with FormatValue.
func (f Field) String() string { return FormatValue(f.Value) }

// Event is a decoded contract log.
type Event struct {
	Name     string
	Block    uint64
	TxHash   string
	LogIndex uint64
	Fields   []Field // in declaration order
}

// Field returns the value of the named parameter.
func (e *Event) Field(name string) (any, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// DecodeLog decodes a log emitted by this contract.
// Indexed dynamic values (arrays, strings, bytes) come back as their topic hash.
func (d *Descriptor) DecodeLog(l chain.LogEntry) (*Event, error) {
	if len(l.Topics) == 0 {
		return nil, fmt.Errorf("%w: log has no topics", ErrUnknownEvent)
	}
	parsed, err := d.Parsed()
	if err != nil {
		return nil, err
	}
	ev, err := parsed.EventByID(common.HexToHash(l.Topics[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: topic %s", ErrUnknownEvent, l.Topics[0])
	}

	data, err := hexutil.Decode(orEmpty(l.Data))
	if err != nil {
		return nil, fmt.Errorf("%s: bad log data: %w", ev.Name, err)
	}
	plain, err := ev.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%s: decoding data: %w", ev.Name, err)
	}

	var indexedArgs abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexedArgs = append(indexedArgs, in)
		}
	}
	topics := make([]common.Hash, 0, len(l.Topics)-1)
	for _, t := range l.Topics[1:] {
		topics = append(topics, common.HexToHash(t))
	}
	if len(topics) != len(indexedArgs) {
		return nil, fmt.Errorf("%s: want %d indexed topics, got %d", ev.Name, len(indexedArgs), len(topics))
	}
	indexed := make(map[string]any, len(indexedArgs))
	if len(indexedArgs) > 0 {
		if err := abi.ParseTopicsIntoMap(indexed, indexedArgs, topics); err != nil {
			return nil, fmt.Errorf("%s: decoding topics: %w", ev.Name, err)
		}
	}

	out := &Event{
		Name:     ev.Name,
		Block:    l.Block(),
		TxHash:   l.TxHash,
		LogIndex: l.Index(),
		Fields:   make([]Field, 0, len(ev.Inputs)),
	}
	next := 0
	for _, in := range ev.Inputs {
		f := Field{Name: in.Name, Type: in.Type.String(), Indexed: in.Indexed}
		if in.Indexed {
			f.Value = indexed[in.Name]
		} else {
			f.Value = plain[next]
			next++
		}
		out.Fields = append(out.Fields, f)
	}
	return out, nil
}

// EventTopics returns the topic0 hashes of the named events, or of every
// event when no names are given.
func (d *Descriptor) EventTopics(names ...string) ([]string, error) {
	if len(names) == 0 {
		var out []string
		for _, e := range d.Events() {
			out = append(out, e.Topic())
		}
		return out, nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		e, err := d.Event(name)
		if err != nil {
			return nil, err
		}
		out = append(out, e.Topic())
	}
	return out, nil
}

func orEmpty(data string) string {
	if data == "" {
		return "0x"
	}
	return data
}
