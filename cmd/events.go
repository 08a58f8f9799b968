package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultEventWindow = 5000

var (
	eventsName  string
	eventsFrom  string
	eventsTo    string
	eventsCount int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Fetch and decode DevFund events",
	Long: `Fetch logs emitted by the DevFund contract and decode them with its ABI:
DeveloperAdded, DevelopersAdded, DeveloperUpdated, DeveloperDeleted,
OwnershipTransferred and OwnershipRenounced.

By default the last 5000 blocks are searched. --event takes one or more
comma-separated event names.

Examples:
  devfund events
  devfund events --event DeveloperAdded,DeveloperDeleted --from 40000000
  devfund events --count 50 --testnet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var names []string
		if eventsName != "" {
			for _, n := range strings.Split(eventsName, ",") {
				names = append(names, strings.TrimSpace(n))
			}
		}
		topics, err := contract.DevFund.EventTopics(names...)
		if err != nil {
			return err
		}

		t, err := resolveTarget(ctx)
		if err != nil {
			return err
		}

		from, err := parseBlock(eventsFrom)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		to, err := parseBlock(eventsTo)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		switch {
		case eventsFrom == "" && to > 0:
			if to > defaultEventWindow {
				from = to - defaultEventWindow
			}
		case eventsFrom == "":
			latest, err := t.client.BlockNumber(ctx)
			if err != nil {
				return fmt.Errorf("getting block number: %w", err)
			}
			if latest > defaultEventWindow {
				from = latest - defaultEventWindow
			}
		case to > 0 && from > to:
			return fmt.Errorf("--from %d is after --to %d", from, to)
		}
		toLabel := "latest"
		if to > 0 {
			toLabel = fmt.Sprint(to)
		}

		spin := ui.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Fetching events on %s...", t.label()))
		spin.Start()
		logs, err := t.client.GetLogs(ctx, chain.LogFilter{
			Address:   t.address,
			FromBlock: from,
			ToBlock:   to,
			Topics:    topics,
		})
		spin.Stop()
		if err != nil {
			return fmt.Errorf("querying events: %w", err)
		}

		var events []*contract.Event
		for _, l := range logs {
			ev, err := contract.DevFund.DecodeLog(l)
			if err != nil {
				logging.L().WithFields(logrus.Fields{"tx": l.TxHash, "topics": l.Topics}).WithError(err).Warn("skipping undecodable log")
				continue
			}
			events = append(events, ev)
		}

		total := len(events)
		if eventsCount > 0 && len(events) > eventsCount {
			events = events[len(events)-eventsCount:]
		}

		fmt.Fprintln(out, ui.KeyValueBlock(
			fmt.Sprintf("Events · %s", t.label()),
			[][2]string{
				{"Contract", ui.Addr(t.address)},
				{"Blocks", fmt.Sprintf("%d → %s", from, toLabel)},
				{"Found", fmt.Sprintf("%d (showing %d)", total, len(events))},
			}))
		if len(events) == 0 {
			return nil
		}

		tbl := ui.NewTable(
			ui.Column{Title: "Block"},
			ui.Column{Title: "Event"},
			ui.Column{Title: "Fields"},
			ui.Column{Title: "Tx"},
		)
		for _, ev := range events {
			tbl.AddRow(fmt.Sprint(ev.Block), ui.EventName(ev.Name), eventFields(ev), ui.TruncateAddr(ev.TxHash))
		}
		fmt.Fprintln(out, tbl.Render())
		return nil
	},
}

// parseBlock accepts decimal or 0x hex. "" and "latest" are 0.
func parseBlock(s string) (uint64, error) {
	if s == "" || s == "latest" {
		return 0, nil
	}
	n := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") {
		_, ok = n.SetString(s[2:], 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok || n.Sign() < 0 || !n.IsUint64() {
		return 0, fmt.Errorf("invalid block %q", s)
	}
	return n.Uint64(), nil
}

func eventFields(ev *contract.Event) string {
	parts := make([]string, 0, len(ev.Fields))
	for _, f := range ev.Fields {
		parts = append(parts, f.Name+"="+f.String())
	}
	return strings.Join(parts, " ")
}

func formatEvent(ev *contract.Event) string {
	return ui.EventName(ev.Name) + " " + eventFields(ev)
}

// decodeReceiptLog decodes a receipt log as a DevFund event or, failing
// that, an ERC-20 event of the payout token.
func decodeReceiptLog(l chain.LogEntry) (*contract.Event, error) {
	ev, err := contract.DevFund.DecodeLog(l)
	if err == nil {
		return ev, nil
	}
	erc20, ok := contract.GetBuiltin("erc20")
	if !ok {
		return nil, err
	}
	return erc20.Descriptor().DecodeLog(l)
}

func init() {
	eventsCmd.Flags().StringVar(&eventsName, "event", "", "event name(s), comma-separated (default: all)")
	eventsCmd.Flags().StringVar(&eventsFrom, "from", "", "start block, decimal or hex (default: latest-5000)")
	eventsCmd.Flags().StringVar(&eventsTo, "to", "", "end block (default: latest)")
	eventsCmd.Flags().IntVar(&eventsCount, "count", 20, "max events to display, 0 for all")
}
