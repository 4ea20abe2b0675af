package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/vmap"
	"github.com/spf13/cobra"
)

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List operators and how batched calls to them are handled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEngine(activeCfg)
			if err != nil {
				return err
			}
			d := e.lib.Dispatcher()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "OPERATOR\tBATCHED\tSCHEMA")
			for _, name := range d.Ops() {
				op, _ := d.Find(name)
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, batchedPath(d, op), op.Schema())
			}
			return w.Flush()
		},
	}
}

// batchedPath describes what handles op when an argument is batched.
func batchedPath(d *dispatch.Dispatcher, op *dispatch.OperatorHandle) string {
	if d.HasRule(dispatch.KeyBatched, op.Name()) {
		return "rule"
	}
	if err := vmap.CheckSchema(op.Schema()); err != nil {
		return "unsupported"
	}
	if op.Schema().IsInplace() {
		return "fallback (in-place)"
	}
	return "fallback"
}
