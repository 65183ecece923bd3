// cmd/tools/fixture-generator/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hms-analytics/internal/appointments"
	"hms-analytics/internal/insights"
)

var (
	seed         int64
	visits       int
	doctors      int
	patients     int
	csvPath      string
	insightsPath string
)

var rootCmd = &cobra.Command{
	Use:   "fixture-generator",
	Short: "Generate synthetic appointments and an insight fixture",
	Long: `fixture-generator writes a seeded synthetic appointment export as CSV and, with
--insights, the aggregated 20-insight fixture the server reads.

Examples:
  fixture-generator                                   # data/PatientAppointmentEntry.csv
  fixture-generator --insights data/insights.json     # also write the fixture
  fixture-generator --seed 7 --visits 5000 --csv /tmp/appointments.csv`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	rootCmd.Flags().IntVar(&visits, "visits", 1500, "Number of appointments")
	rootCmd.Flags().IntVar(&doctors, "doctors", 50, "Number of doctors")
	rootCmd.Flags().IntVar(&patients, "patients", 500, "Number of patients")
	rootCmd.Flags().StringVar(&csvPath, "csv", "data/PatientAppointmentEntry.csv", "CSV output path")
	rootCmd.Flags().StringVar(&insightsPath, "insights", "", "Insight fixture output path (skipped when empty)")
}

func run(cmd *cobra.Command, args []string) error {
	rows := appointments.Synthetic(appointments.SyntheticOptions{
		Seed:     seed,
		Visits:   visits,
		Doctors:  doctors,
		Patients: patients,
		Now:      time.Now(),
	})

	if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := appointments.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d appointments to %s\n", len(rows), csvPath)

	if insightsPath == "" {
		return nil
	}

	collection, err := insights.Aggregate(appointments.Clean(rows))
	if err != nil {
		return err
	}
	if err := insights.WriteFixture(insightsPath, collection); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d insights to %s\n", len(collection), insightsPath)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
