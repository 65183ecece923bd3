// cmd/tools/insights-check/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	httpclient "hms-analytics/internal/common/http"
)

const defaultPath = "/api/v1/analytics/doctor-patient-insights"

var (
	baseURL    string
	path       string
	timeout    time.Duration
	wait       time.Duration
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "insights-check",
	Short: "Check a running service against the insight contract",
	Long: `insights-check calls the insights endpoint of a running service and checks the
status code, content type, cardinality, chart types and series lengths.

Examples:
  insights-check
  insights-check --url http://analytics:8000 --wait 1m
  insights-check --path /api/v1/analytics/dashboard --json`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "url", "http://localhost:8000", "Service base URL")
	rootCmd.Flags().StringVar(&path, "path", defaultPath, "Endpoint path")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout")
	rootCmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying unreachable services for this long")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func run(cmd *cobra.Command, args []string) error {
	client := httpclient.NewClient(timeout).WithUserAgent("insights-check")
	url := strings.TrimRight(baseURL, "/") + path

	result, err := checkWithWait(context.Background(), client, url, wait)
	if err != nil {
		return fmt.Errorf("check %s: %w", url, err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "%s -> %d (%d insights, %d ms)\n", result.URL, result.StatusCode, result.Insights, result.DurationMs)
		for _, p := range result.Problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}

	if !result.OK() {
		return fmt.Errorf("%d contract problems", len(result.Problems))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
