package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/fpl-harvester/internal/report"
	"github.com/jonathan/fpl-harvester/internal/schemas"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Verify a collected corpus and write its report",
	Long:  "Walks every persisted record under the corpus directory, cross-checks identifiers against player names, counts records and images, and writes report.txt into the corpus root.",
	RunE:  runReport,
}

var (
	reportCorpusDir  string
	reportSchemaPath string
	reportDryRun     bool
)

func init() {
	reportCmd.Flags().StringVarP(&reportCorpusDir, "corpus", "d", "raw_data", "Corpus directory to verify")
	reportCmd.Flags().StringVar(&reportSchemaPath, "schema", "", "Record JSON schema (default: schemas/player_record.schema.json)")
	reportCmd.Flags().BoolVar(&reportDryRun, "dry-run", false, "Print the report without writing report.txt")

	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	schemaPath := reportSchemaPath
	if schemaPath == "" {
		schemaPath = schemas.ResolveSchemaPath("schemas/player_record.schema.json")
	}

	rep, err := report.Generate(reportCorpusDir, schemaPath)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	_, _ = fmt.Fprint(os.Stdout, rep.Render())

	if reportDryRun {
		return nil
	}
	if err := rep.Write(reportCorpusDir); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "\nReport written to %s.\n", reportCorpusDir+string(os.PathSeparator)+report.ReportFileName)
	return nil
}
