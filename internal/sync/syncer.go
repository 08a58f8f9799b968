// Package sync imports DevFund deployment addresses from a remote manifest.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
)

// maxManifestSize caps the manifest body.
const maxManifestSize = 1 << 20

// Manifest is a published deployments.json:
//
//	{"contracts": {"devfund": {"bnb": {"address": "0x..."}, "bnb-testnet": {...}}}}
type Manifest struct {
	Contracts map[string]map[string]ManifestEntry `json:"contracts"`
}

// ManifestEntry is one deployment of a contract.
type ManifestEntry struct {
	Address string `json:"address"`
}

// Report lists what a Run imported and what it skipped, sorted by network.
type Report struct {
	Added   []contract.Deployment
	Skipped []Skip
}

// Skip is a manifest entry that was not imported.
type Skip struct {
	Contract string
	Network  string
	Reason   string
}

// Syncer imports manifest entries for one descriptor into a Deployments store.
type Syncer struct {
	desc    *contract.Descriptor
	store   *contract.Deployments
	aliases map[string]bool
	client  *http.Client
}

// New creates a Syncer for desc. Manifest contracts named after the
// descriptor or any of aliases are imported; all others are skipped.
func New(desc *contract.Descriptor, store *contract.Deployments, aliases ...string) *Syncer {
	names := map[string]bool{desc.Name(): true}
	for _, a := range aliases {
		names[a] = true
	}
	return &Syncer{
		desc:    desc,
		store:   store,
		aliases: names,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Run fetches the manifest at url, records every matching entry and saves
// the store. Entries with an invalid address are skipped, not fatal.
func (s *Syncer) Run(ctx context.Context, url string) (*Report, error) {
	m, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for name, networks := range m.Contracts {
		for network, entry := range networks {
			if !s.aliases[name] {
				rep.Skipped = append(rep.Skipped, Skip{Contract: name, Network: network, Reason: "unknown contract"})
				continue
			}
			d := contract.Deployment{Name: s.desc.Name(), Network: network, Address: entry.Address}
			if err := s.store.Add(d); err != nil {
				rep.Skipped = append(rep.Skipped, Skip{Contract: name, Network: network, Reason: err.Error()})
				continue
			}
			stored, _ := s.store.Get(d.Name, network)
			rep.Added = append(rep.Added, *stored)
		}
	}
	sort.Slice(rep.Added, func(i, j int) bool { return rep.Added[i].Network < rep.Added[j].Network })
	sort.Slice(rep.Skipped, func(i, j int) bool {
		if rep.Skipped[i].Contract != rep.Skipped[j].Contract {
			return rep.Skipped[i].Contract < rep.Skipped[j].Contract
		}
		return rep.Skipped[i].Network < rep.Skipped[j].Network
	})

	if len(rep.Added) > 0 {
		if err := s.store.Save(); err != nil {
			return nil, fmt.Errorf("saving deployments: %w", err)
		}
	}
	logging.L().WithFields(logrus.Fields{
		"source":  url,
		"added":   len(rep.Added),
		"skipped": len(rep.Skipped),
	}).Info("deployments synced")
	return rep, nil
}

// Watch runs Run every interval until ctx is cancelled. Only the first
// run's error is returned; later failures are logged.
func (s *Syncer) Watch(ctx context.Context, url string, interval time.Duration, onSync func(*Report)) error {
	rep, err := s.Run(ctx, url)
	if err != nil {
		return err
	}
	if onSync != nil {
		onSync(rep)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rep, err := s.Run(ctx, url)
			if err != nil {
				logging.L().WithError(err).WithField("source", url).Warn("sync failed")
				continue
			}
			if onSync != nil {
				onSync(rep)
			}
		}
	}
}

func (s *Syncer) fetch(ctx context.Context, url string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapPrefix(err, "fetching manifest", 0)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.WrapPrefix(err, "fetching manifest", 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching manifest: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, errors.WrapPrefix(err, "reading manifest", 0)
	}
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, errors.WrapPrefix(err, "parsing manifest", 0)
	}
	return &m, nil
}
