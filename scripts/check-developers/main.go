// check-developers: reads the DevFund record of each address on every network
// (mainnet + testnet) in parallel and prints a summary table. Networks where
// the fund has no code are reported once and skipped.
//
// Run from the module root:
//
//	go run ./scripts/check-developers 0xDev1 0xDev2
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/contract"
)

const rpcTimeout = 12 * time.Second

type result struct {
	chain     string
	mode      string
	dev       string
	status    string
	allowance string
	claimed   string
	note      string
}

func main() {
	devs := os.Args[1:]
	if len(devs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: check-developers <address>...")
		os.Exit(2)
	}
	for _, d := range devs {
		if err := contract.ValidateAddress(d); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", d, err)
			os.Exit(2)
		}
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)
	add := func(r result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	for _, c := range chain.NewRegistry().All() {
		if c.Name == "localhost" {
			continue
		}
		for _, mode := range []string{chain.ModeMainnet, chain.ModeTestnet} {
			rpcs := c.RPCs(mode)
			if len(rpcs) == 0 {
				continue
			}
			wg.Add(1)
			go func(c chain.Chain, mode, rpcURL string) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
				defer cancel()

				client := chain.NewEVMClient(rpcURL)
				base := result{chain: c.Name, mode: mode, status: "-", allowance: "-", claimed: "-"}

				if _, _, err := client.Ping(ctx); err != nil {
					base.note = "unreachable"
					add(base)
					return
				}
				code, err := client.GetCode(ctx, contract.DevFundAddress)
				if err != nil {
					base.note = shortErr(err)
					add(base)
					return
				}
				if code == "" || code == "0x" {
					base.note = "no contract"
					add(base)
					return
				}

				caller := contract.NewCaller(client, contract.DevFund, "")
				for _, dev := range devs {
					r := base
					r.dev = shortAddr(dev)
					info, err := caller.Developer(ctx, dev)
					switch {
					case err != nil:
						r.note = shortErr(err)
					case !info.IsDeveloper:
						r.status = "not registered"
					default:
						r.status = "registered"
						r.allowance = contract.FormatUnits(info.MonthlyAllowance, 18)
						r.claimed = contract.FormatUnits(info.TotalClaimed, 18)
					}
					add(r)
				}
			}(c, mode, rpcs[0])
		}
	}

	wg.Wait()
	printTable(results)
}

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.chain != b.chain {
			return a.chain < b.chain
		}
		if a.mode != b.mode {
			return a.mode < b.mode
		}
		return a.dev < b.dev
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHAIN\tMODE\tDEVELOPER\tSTATUS\tALLOWANCE\tCLAIMED\tNOTE")
	fmt.Fprintln(w, strings.Join([]string{
		strings.Repeat("-", 10), strings.Repeat("-", 8), strings.Repeat("-", 14),
		strings.Repeat("-", 14), strings.Repeat("-", 12), strings.Repeat("-", 12), strings.Repeat("-", 12),
	}, "\t"))
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.chain, r.mode, r.dev, r.status, r.allowance, r.claimed, r.note)
	}
	w.Flush()
}

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
