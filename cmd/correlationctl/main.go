// correlationctl inspects alarm correlations from a terminal.
//
// Usage:
//
//	correlationctl tree a-001
//	correlationctl tree a-001 --depth 3 -o json
//	correlationctl get a-002
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	outputFmt  string
	serviceURL string
	token      string
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlationctl",
		Short: "Inspect alarm correlations",
		Long: `correlationctl shows how alarms relate to their root causes.

It talks to the alarm-correlation service over its REST API. The service url
and token default to ALARM_CORRELATION_URL and ALARM_CORRELATION_TOKEN.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json")
	cmd.PersistentFlags().StringVar(&serviceURL, "url", envOrDefault("ALARM_CORRELATION_URL", "http://localhost:8080"), "Alarm correlation service url")
	cmd.PersistentFlags().StringVar(&token, "token", os.Getenv("ALARM_CORRELATION_TOKEN"), "Bearer token")

	cmd.AddCommand(treeCmd())
	cmd.AddCommand(getCmd())

	return cmd
}

func envOrDefault(name, def string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return def
}
