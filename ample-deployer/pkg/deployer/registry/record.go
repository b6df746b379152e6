package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

const (
	isBaseChainKey      = "isBaseChain"
	baseChainNetworkKey = "baseChainNetwork"
)

// Entry is one deployed contract as persisted: its address and its human-readable ABI.
type Entry struct {
	Address common.Address `json:"address"`
	ABI     []string       `json:"abi"`
}

// Record is everything deployed on one network. It is persisted as a flat JSON object:
// the topology keys next to one key per contract role.
type Record struct {
	// IsBaseChain is nil until the first suite deployment or import sets it.
	IsBaseChain *bool
	// BaseChainNetwork names the base network of a satellite record.
	BaseChainNetwork string
	Contracts        map[string]Entry
}

func NewRecord() *Record {
	return &Record{Contracts: make(map[string]Entry)}
}

// Names returns the contract roles of the record, sorted.
func (r *Record) Names() []string {
	names := make([]string, 0, len(r.Contracts))
	for name := range r.Contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	first := true
	field := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		if !first {
			buf.WriteString(",")
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteString(":")
		buf.Write(data)
		return nil
	}
	if r.IsBaseChain != nil {
		if err := field(isBaseChainKey, *r.IsBaseChain); err != nil {
			return nil, err
		}
	}
	if r.BaseChainNetwork != "" {
		if err := field(baseChainNetworkKey, r.BaseChainNetwork); err != nil {
			return nil, err
		}
	}
	for _, name := range r.Names() {
		if err := field(name, r.Contracts[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := NewRecord()
	for key, value := range raw {
		switch key {
		case isBaseChainKey:
			var b bool
			if err := json.Unmarshal(value, &b); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			out.IsBaseChain = &b
		case baseChainNetworkKey:
			if err := json.Unmarshal(value, &out.BaseChainNetwork); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
		default:
			var e Entry
			if err := json.Unmarshal(value, &e); err != nil {
				return fmt.Errorf("invalid entry %s: %w", key, err)
			}
			out.Contracts[key] = e
		}
	}
	*r = *out
	return nil
}
