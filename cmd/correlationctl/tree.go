package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/pkg/client"
	"github.com/diwise/alarm-correlation/pkg/types"
)

func treeCmd() *cobra.Command {
	var depth, concurrency int

	cmd := &cobra.Command{
		Use:   "tree <alarmID>",
		Short: "Show the correlation tree of an alarm",
		Long: `Show the root cause of an alarm together with every alarm that is
caused by it, as a tree.

Examples:
  # Show the correlation of an alarm
  correlationctl tree a-001

  # Follow at most three parent links, four queries at a time
  correlationctl tree a-001 --depth 3 --concurrency 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			cfg := correlation.Config{MaxDepth: depth, Concurrency: concurrency}
			return runTree(cmd.Context(), c, cfg, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&depth, "depth", correlation.DefaultMaxDepth, "Maximum number of parent links to follow")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of queries to run in parallel")

	return cmd
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	var opts []client.Option
	if token != "" {
		opts = append(opts, client.WithToken(token))
	}
	return client.New(cmd.Context(), serviceURL, opts...)
}

// alarmSource answers correlation queries through the remote api.
type alarmSource interface {
	GetAlarm(ctx context.Context, alarmID string) (types.Alarm, error)
	FindByID(ctx context.Context, alarmID string) ([]types.Alarm, error)
	FindByParentID(ctx context.Context, parentID string) ([]types.Alarm, error)
}

func querySource(src alarmSource) correlation.QuerySource {
	return correlation.QuerySourceFunc(func(ctx context.Context, p correlation.Predicate) ([]types.Alarm, error) {
		if p.Field == correlation.FieldParentID {
			return src.FindByParentID(ctx, p.Value)
		}
		return src.FindByID(ctx, p.Value)
	})
}

func runTree(ctx context.Context, src alarmSource, cfg correlation.Config, alarmID string, w io.Writer) error {
	seed, err := src.GetAlarm(ctx, alarmID)
	if errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("alarm %s does not exist", alarmID)
	}
	if err != nil {
		return err
	}

	target := &terminalTarget{w: w, json: outputFmt == "json"}
	ctrl := correlation.NewController(correlation.NewFetcher(querySource(src), cfg), noNavigation{}, correlation.DefaultFormatter())

	ctrl.Open(ctx, seed, target)

	return target.err
}

type noNavigation struct{}

func (noNavigation) OpenDetail(context.Context, string) {}

// terminalTarget prints a correlation view. Alarm text is stripped of control
// characters before it reaches the terminal.
type terminalTarget struct {
	w    io.Writer
	json bool
	err  error
}

func (t *terminalTarget) Attached() bool {
	return true
}

func (t *terminalTarget) RenderTree(c types.Correlation, f correlation.Formatter, _ correlation.ClickFunc) {
	if t.json {
		enc := json.NewEncoder(t.w)
		enc.SetIndent("", "  ")
		t.err = enc.Encode(c)
		return
	}

	if c.Parent != nil {
		fmt.Fprintf(t.w, "Root cause: %s (%s)\n\n", sanitize(c.Parent.DisplayName()), sanitize(c.Parent.ID))
	}

	correlation.Walk(c.Roots, func(n *types.TreeNode, depth int) {
		marker := " "
		if n.IsFocused {
			marker = "*"
		}

		fmt.Fprintf(t.w, "%s%s%s [%s] %s, %s, %s %s\n",
			marker,
			strings.Repeat("  ", depth),
			sanitize(n.Alarm.DisplayName()),
			n.Role,
			f.Severity(n.Alarm.Severity),
			f.State(n.Alarm.State),
			sanitize(n.Alarm.NodeName),
			"("+sanitize(n.Alarm.ID)+")",
		)
	})
}

func (t *terminalTarget) RenderEmpty() {
	fmt.Fprintln(t.w, "No correlation data is available for this alarm.")
}

func (t *terminalTarget) RenderError(err error) {
	t.err = fmt.Errorf("failed to load correlated alarms: %w", err)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
