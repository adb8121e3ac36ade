// Package main provides a one-shot CLI import of a local DOCX file,
// bypassing the HTTP surface. Useful for backfills and local testing.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkovalev/docximport/internal/importer"
	"github.com/dkovalev/docximport/internal/logger"
	"github.com/dkovalev/docximport/internal/pipeline"
	"github.com/dkovalev/docximport/internal/store"
)

var (
	target string
	driver string
	dsn    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "import [input.docx]",
		Short: "Import the tables of a DOCX document into the target database table",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}

	rootCmd.Flags().StringVarP(&target, "target", "t", "", "Import target name (required)")
	rootCmd.Flags().StringVar(&driver, "driver", envOr("DB_DRIVER", "postgres"), "Database driver: postgres or sqlite")
	rootCmd.Flags().StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "Database connection string")
	rootCmd.MarkFlagRequired("target")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	if !strings.EqualFold(filepath.Ext(inputPath), ".docx") {
		return fmt.Errorf("input must be a .docx file: %s", inputPath)
	}
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if dsn == "" {
		return fmt.Errorf("no database configured: set DATABASE_URL or pass --dsn")
	}

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	st, err := store.Open(ctx, driver, dsn, log)
	if err != nil {
		return err
	}
	defer st.Close()

	targets := pipeline.DefaultRegistry()
	pipe := pipeline.New(st, importer.New(st, log), targets, log)

	result, err := pipe.ImportDocument(ctx, pipeline.Request{
		Filename: filepath.Base(inputPath),
		Content:  content,
		Target:   target,
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %s into %s: %d written, %d skipped (run %s)\n",
		inputPath, target, result.Import.Written, result.Import.Skipped, result.RunID)

	return nil
}
