package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Mohsinsiddi/devfund/internal/contract"
	"github.com/Mohsinsiddi/devfund/internal/ui"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call [function] [args...]",
	Short: "Call a read-only DevFund function",
	Long: `Call a view or pure function on the DevFund contract and print the
decoded outputs. Without a function name an interactive picker lists the
read functions.

Examples:
  devfund call msnToken
  devfund call msnDevelopers 0xDev
  devfund call                      # pick from a list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fn, fnArgs, err := chooseFunction(cmd.InOrStdin(), cmd.OutOrStdout(), args, contract.DevFund.ReadFunctions(), "Select a read function")
		if err != nil || fn == "" {
			return err
		}
		entry, err := contract.DevFund.Function(fn)
		if err != nil {
			return err
		}
		if !entry.IsReadFunction() {
			return fmt.Errorf("%w: %q; use `devfund send %s`", contract.ErrNotReadFunction, fn, fn)
		}

		t, err := resolveTarget(ctx)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Calling %s on %s...", fn, t.label()))
		spin.Start()
		results, err := contract.NewCaller(t.client, contract.DevFund, t.address).Call(ctx, fn, fnArgs...)
		spin.Stop()
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Contract", ui.Addr(t.address)},
			{"Function", ui.Val(entry.Signature())},
			{"Network", t.label()},
		}
		for i, r := range results {
			label := fmt.Sprintf("Result[%d]", i)
			if i < len(entry.Outputs) && entry.Outputs[i].Name != "" {
				label = entry.Outputs[i].Name
			}
			pairs = append(pairs, [2]string{label, ui.Val(r)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Call Result", pairs))
		return nil
	},
}

// chooseFunction takes the function from args or, when args is empty, from
// the picker, then prompts for each argument. An empty name with a nil
// error means the user cancelled.
func chooseFunction(in io.Reader, out io.Writer, args []string, entries []contract.ABIEntry, title string) (string, []string, error) {
	if len(args) > 0 {
		return args[0], args[1:], nil
	}
	fn, err := pickItem(title, functionItems(entries))
	if errors.Is(err, ui.ErrNothingToPick) {
		return "", nil, errors.New("no functions to choose from")
	}
	if err != nil || fn == "" {
		return "", nil, err
	}
	e, err := contract.DevFund.Function(fn)
	if err != nil {
		return "", nil, err
	}

	r := bufio.NewReader(in)
	fnArgs := make([]string, 0, len(e.Inputs))
	for i, p := range e.Inputs {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		fmt.Fprintf(out, "%s %s: ", ui.Val(name), ui.Meta("("+p.Type+")"))
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return "", nil, fmt.Errorf("reading %s: %w", name, err)
		}
		fnArgs = append(fnArgs, strings.TrimSpace(line))
	}
	return fn, fnArgs, nil
}
