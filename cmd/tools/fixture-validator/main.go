// cmd/tools/fixture-validator/main.go
package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"hms-analytics/internal/common/validation"
	"hms-analytics/internal/insights"
	"hms-analytics/internal/models"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "fixture-validator <fixture.json>...",
	Short: "Validate insight fixtures offline",
	Long: `fixture-validator checks each fixture against the insight collection schema and
the record invariants the server enforces, printing one line per insight.

Examples:
  fixture-validator data/insights.json
  fixture-validator --json data/*.json`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// Report is the validation outcome for one fixture file.
type Report struct {
	Path         string         `json:"path"`
	Valid        bool           `json:"valid"`
	Error        string         `json:"error,omitempty"`
	SchemaErrors []string       `json:"schemaErrors,omitempty"`
	Insights     []InsightCheck `json:"insights,omitempty"`
}

type InsightCheck struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	ChartType string `json:"chartType"`
	Points    int    `json:"points"`
	Error     string `json:"error,omitempty"`
}

func validateFile(path string) Report {
	report := Report{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	if result, err := validation.ValidateInsightDocument(raw); err != nil {
		report.Error = err.Error()
		return report
	} else if !result.Valid {
		report.SchemaErrors = result.GetErrorMessages()
	}

	// Per-record checks need a loose decode so that one bad chart type does not hide the rest.
	var loose []struct {
		Title       string           `json:"title"`
		Description string           `json:"description"`
		ChartType   string           `json:"chart_type"`
		ChartData   models.ChartData `json:"chart_data"`
	}
	if err := json.Unmarshal(raw, &loose); err == nil {
		for i, rec := range loose {
			insight := models.Insight{
				Title:       rec.Title,
				Description: rec.Description,
				ChartType:   models.ChartType(rec.ChartType),
				ChartData:   rec.ChartData,
			}
			check := InsightCheck{
				Index:     i,
				Title:     rec.Title,
				ChartType: rec.ChartType,
				Points:    len(rec.ChartData.Labels),
			}
			if err := insight.Validate(); err != nil {
				check.Error = err.Error()
			}
			report.Insights = append(report.Insights, check)
		}
	}

	if _, err := insights.Decode(raw); err != nil {
		report.Error = err.Error()
		return report
	}
	report.Valid = true
	return report
}

func run(cmd *cobra.Command, args []string) error {
	reports := make([]Report, 0, len(args))
	failed := 0
	for _, path := range args {
		r := validateFile(path)
		if !r.Valid {
			failed++
		}
		reports = append(reports, r)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		for _, r := range reports {
			printReport(cmd, r)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fixtures failed validation", failed, len(reports))
	}
	return nil
}

func printReport(cmd *cobra.Command, r Report) {
	out := cmd.OutOrStdout()
	status := "OK"
	if !r.Valid {
		status = "FAIL"
	}
	fmt.Fprintf(out, "%s  %s (%d insights, want %d)\n", status, r.Path, len(r.Insights), models.InsightCount)
	for _, e := range r.SchemaErrors {
		fmt.Fprintf(out, "  schema: %s\n", e)
	}
	for _, c := range r.Insights {
		mark := "ok"
		if c.Error != "" {
			mark = "ERR " + c.Error
		}
		fmt.Fprintf(out, "  [%2d] %-5s %3d points  %s  %s\n", c.Index, c.ChartType, c.Points, c.Title, mark)
	}
	if r.Error != "" {
		fmt.Fprintf(out, "  error: %s\n", r.Error)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
