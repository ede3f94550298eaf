package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/diwise/alarm-correlation/internal/pkg/application/correlation"
	"github.com/diwise/alarm-correlation/pkg/client"
	"github.com/diwise/alarm-correlation/pkg/types"
)

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <alarmID>",
		Short: "Show a single alarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			alarm, err := c.GetAlarm(cmd.Context(), args[0])
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("alarm %s does not exist", args[0])
			}
			if err != nil {
				return err
			}

			return printAlarm(cmd.OutOrStdout(), alarm, correlation.DefaultFormatter())
		},
	}
}

func printAlarm(w io.Writer, a types.Alarm, f correlation.Formatter) error {
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}

	parent := "-"
	if a.ParentID != nil {
		parent = sanitize(*a.ParentID)
	}

	fmt.Fprintf(w, "ID:        %s\n", sanitize(a.ID))
	fmt.Fprintf(w, "Name:      %s\n", sanitize(a.DisplayName()))
	fmt.Fprintf(w, "Severity:  %s\n", f.Severity(a.Severity))
	fmt.Fprintf(w, "State:     %s\n", f.State(a.State))
	fmt.Fprintf(w, "Node:      %s\n", sanitize(a.NodeName))
	fmt.Fprintf(w, "Parent:    %s\n", parent)
	fmt.Fprintf(w, "Root:      %t\n", a.IsRoot)

	return nil
}
