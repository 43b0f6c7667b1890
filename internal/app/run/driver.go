// SPDX-License-Identifier: MPL-2.0

package run

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/matrixrun/matrixrun/internal/matrix"
)

type (
	// Invoker runs a single target.
	Invoker interface {
		Invoke(ctx context.Context, target matrix.Target, rc matrix.RunContext) error
	}

	// Summary counts what a run did. It is logged, never printed as a report.
	Summary struct {
		Listed   int
		Selected int
		Executed int
	}

	// Driver walks the matrix in order.
	Driver struct {
		invoker Invoker
		out     io.Writer
	}
)

// NewDriver creates a Driver. Listed tags are written to out.
func NewDriver(invoker Invoker, out io.Writer) *Driver {
	return &Driver{invoker: invoker, out: out}
}

// Run applies the selection to each target in order. Listed targets have
// their tag printed, skipped targets are ignored and selected targets are
// invoked. The first invocation error stops the run and is returned as-is.
// A selection matching nothing is not an error.
func (d *Driver) Run(ctx context.Context, targets []matrix.Target, rc matrix.RunContext) (Summary, error) {
	var sum Summary

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		switch rc.Selection.Decide(t.Tag) {
		case matrix.List:
			if _, err := fmt.Fprintln(d.out, t.Tag); err != nil {
				return sum, fmt.Errorf("writing tag list: %w", err)
			}
			sum.Listed++
		case matrix.Skip:
			continue
		case matrix.Run:
			sum.Selected++
			if err := d.invoker.Invoke(ctx, t, rc); err != nil {
				slog.Debug("target failed", "tag", t.Tag, "error", err)
				return sum, err
			}
			sum.Executed++
		}
	}

	slog.Debug("run finished",
		"mode", rc.Selection.Mode().String(),
		"listed", sum.Listed,
		"selected", sum.Selected,
		"executed", sum.Executed,
	)
	return sum, nil
}
