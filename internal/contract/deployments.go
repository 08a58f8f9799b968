package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// ErrDeploymentNotFound is returned when no override is recorded.
var ErrDeploymentNotFound = errors.New("deployment not found")

// Deployment records where a contract lives on one network.
type Deployment struct {
	Name    string `json:"name"`
	Network string `json:"network"`
	Address string `json:"address"`
}

// Deployments stores per-network address overrides in a JSON file.
// A descriptor's own address is used wherever no override exists.
type Deployments struct {
	path    string
	entries map[string]*Deployment // key: "name@network"
}

// NewDeployments creates a store backed by path. Nothing is read until Load.
func NewDeployments(path string) *Deployments {
	return &Deployments{
		path:    path,
		entries: make(map[string]*Deployment),
	}
}

// Load reads the file. A missing file is an empty store.
func (r *Deployments) Load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var list []Deployment
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parsing %s: %w", r.path, err)
	}
	for i := range list {
		d := &list[i]
		r.entries[key(d.Name, d.Network)] = d
	}
	return nil
}

// Save writes every entry, sorted by key.
func (r *Deployments) Save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}
	list := make([]Deployment, 0, len(r.entries))
	for _, d := range r.All() {
		list = append(list, *d)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o600)
}

// Add records or replaces an override. The address is stored checksummed.
func (r *Deployments) Add(d Deployment) error {
	if d.Name == "" || d.Network == "" {
		return errors.New("deployment needs a name and a network")
	}
	if err := ValidateAddress(d.Address); err != nil {
		return err
	}
	d.Address = common.HexToAddress(d.Address).Hex()
	r.entries[key(d.Name, d.Network)] = &d
	return nil
}

// Get returns the override for name on network.
func (r *Deployments) Get(name, network string) (*Deployment, error) {
	d, ok := r.entries[key(name, network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrDeploymentNotFound, name, network)
	}
	return d, nil
}

// Remove deletes the override for name on network.
func (r *Deployments) Remove(name, network string) error {
	k := key(name, network)
	if _, ok := r.entries[k]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrDeploymentNotFound, name, network)
	}
	delete(r.entries, k)
	return nil
}

// All returns every override sorted by name, then network.
func (r *Deployments) All() []*Deployment {
	out := make([]*Deployment, 0, len(r.entries))
	for _, d := range r.entries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Network < out[j].Network
	})
	return out
}

// Resolve returns the address desc is deployed at on network.
func (r *Deployments) Resolve(desc *Descriptor, network string) string {
	if d, err := r.Get(desc.Name(), network); err == nil {
		return d.Address
	}
	return desc.Address()
}

func key(name, network string) string {
	return name + "@" + network
}
