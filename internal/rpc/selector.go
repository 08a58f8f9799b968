// Package rpc picks a working JSON-RPC endpoint out of a network's list.
package rpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/sirupsen/logrus"
)

// ErrNoHealthyRPC is returned when no endpoint answered.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest  Algorithm = "fastest"
	AlgorithmFailover Algorithm = "failover"

	// Endpoints more than this many blocks behind the best are stale.
	staleBlockThreshold = 3
	probeTimeout        = 5 * time.Second
)

// ParseAlgorithm maps a config string to an Algorithm, defaulting to fastest.
func ParseAlgorithm(s string) Algorithm {
	if Algorithm(s) == AlgorithmFailover {
		return AlgorithmFailover
	}
	return AlgorithmFastest
}

// Endpoint is one probed RPC URL.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// Probe pings url once and records latency and head block.
func Probe(ctx context.Context, url string) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	latency, block, err := chain.NewEVMClient(url).Ping(ctx)
	return Endpoint{URL: url, Latency: latency, BlockNumber: block, Err: err}
}

// ProbeAll probes every URL concurrently. Results keep the input order.
func ProbeAll(ctx context.Context, urls []string) []Endpoint {
	out := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = Probe(ctx, u)
		}()
	}
	wg.Wait()
	return out
}

// Select returns the URL to use. A single URL is returned without probing.
func Select(ctx context.Context, urls []string, algo Algorithm) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	if algo == AlgorithmFailover {
		for _, u := range urls {
			ep := Probe(ctx, u)
			if ep.Healthy() {
				return u, nil
			}
			logging.L().WithFields(logrus.Fields{"rpc": u}).WithError(ep.Err).Debug("failover: endpoint down")
		}
		return "", ErrNoHealthyRPC
	}

	winner, err := Pick(ProbeAll(ctx, urls))
	if err != nil {
		return "", err
	}
	logging.L().WithFields(logrus.Fields{"rpc": winner.URL, "latency": winner.Latency}).Debug("selected rpc")
	return winner.URL, nil
}

// Pick chooses the lowest-latency healthy endpoint that is not stale.
func Pick(endpoints []Endpoint) (*Endpoint, error) {
	var best uint64
	for _, e := range endpoints {
		if e.Healthy() && e.BlockNumber > best {
			best = e.BlockNumber
		}
	}

	var winner *Endpoint
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Healthy() {
			continue
		}
		if best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if winner == nil || e.Latency < winner.Latency {
			winner = e
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}
	return winner, nil
}
