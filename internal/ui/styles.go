package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette, keyed by what DevFund output shows rather than by hue.
var (
	ColorRead    = lipgloss.Color("#3DDC97") // view calls, registered developers, confirmations
	ColorWrite   = lipgloss.Color("#F4B942") // state-changing calls and their prompts
	ColorDanger  = lipgloss.Color("#E5484D") // ownership transfer, token sweeps, failures
	ColorAddress = lipgloss.Color("#4CC9F0")
	ColorAmount  = lipgloss.Color("#F8F9FA") // MSN allowances and claims
	ColorOwner   = lipgloss.Color("#B185DB") // ownership events, network names
	ColorMeta    = lipgloss.Color("#6C757D")
	ColorBorder  = lipgloss.Color("#2B3A55")
	ColorHeader  = lipgloss.Color("#FF7AA2") // table headers, picker cursor
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorRead).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWrite).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	StyleDanger  = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true).Underline(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorAmount).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleNetwork = lipgloss.NewStyle().Foreground(ColorOwner).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHeader).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorOwner).
			Bold(true).
			MarginBottom(1)
)

func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }
func Warn(msg string) string    { return StyleWarning.Render("⚠ " + msg) }
func Err(msg string) string     { return StyleError.Render("✗ " + msg) }
func Hint(msg string) string    { return StyleMeta.Render("→ " + msg) }
func Addr(a string) string      { return StyleAddress.Render(a) }
func Val(v string) string       { return StyleValue.Render(v) }
func Meta(m string) string      { return StyleMeta.Render(m) }
func Network(n string) string   { return StyleNetwork.Render(n) }

// Danger marks calls that move ownership or tokens out of the fund.
func Danger(msg string) string { return StyleDanger.Render("⚠ " + msg) }

// Amount renders a token amount with its symbol, if known.
func Amount(v, symbol string) string {
	if symbol == "" {
		return StyleValue.Render(v)
	}
	return StyleValue.Render(v) + " " + StyleMeta.Render(symbol)
}

// DeveloperStatus renders the isDeveloper flag of a fund record.
func DeveloperStatus(registered bool) string {
	if registered {
		return StyleSuccess.Render("registered")
	}
	return StyleWarning.Render("not registered")
}

// EventName colours a DevFund event by what it did to the developer set:
// additions green, updates amber, deletions red, ownership purple.
func EventName(name string) string {
	switch {
	case strings.HasPrefix(name, "Ownership"):
		return StyleNetwork.Render(name)
	case strings.HasPrefix(name, "Developer") && strings.HasSuffix(name, "Deleted"):
		return StyleError.Render(name)
	case strings.HasSuffix(name, "Added"):
		return StyleSuccess.Render(name)
	case strings.HasSuffix(name, "Updated"):
		return StyleWarning.Render(name)
	}
	return StyleValue.Render(name)
}

// Mutability colours a stateMutability tag: reads green, writes amber.
func Mutability(m string) string {
	switch m {
	case "view", "pure":
		return StyleSuccess.Render(m)
	case "nonpayable", "payable":
		return StyleWarning.Render(m)
	}
	return StyleMeta.Render(m)
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
