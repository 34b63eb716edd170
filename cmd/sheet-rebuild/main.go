package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kunal-9999/inventory-management-system-sub000/config"
	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/kunal-9999/inventory-management-system-sub000/workflow"
	"github.com/sirupsen/logrus"
)

// sheet-rebuild recomputes one sheet's carry-forward chains and consolidated
// series from the persisted snapshot and writes the result back. Use it after
// a schema migration or a bulk import, when the stored closings may no longer
// match the stored inputs.
func main() {
	sheetId := flag.String("sheet-id", "", "sheet to rebuild (required)")
	startMonth := flag.String("start-month", "", "first month of the window as YYYY-MM (default: December of last year)")
	dryRun := flag.Bool("dry-run", false, "recalculate and report, but do not save")
	flag.Parse()

	if *sheetId == "" {
		fmt.Fprintln(os.Stderr, "sheet-rebuild: -sheet-id is required")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	logger := config.GetLogger()

	months := models.DefaultMonthSequence(time.Now().UTC())
	if *startMonth != "" {
		start, err := models.MonthKey(*startMonth).Time()
		if err != nil {
			fmt.Fprintf(os.Stderr, "sheet-rebuild: bad -start-month %q: %v\n", *startMonth, err)
			os.Exit(2)
		}
		months = models.MonthSequence(start)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.AutoMigrateSheetTables(config.GetDB()); err != nil {
		config.LogError(logger, "main.go", "main", "AutoMigrateSheetTables", *sheetId, err)
		os.Exit(1)
	}
	store := models.NewSheetStore(config.GetDB())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rows, err := store.LoadRows(ctx, *sheetId)
	if err != nil {
		config.LogError(logger, "main.go", "main", "LoadRows", *sheetId, err)
		os.Exit(1)
	}
	overrides, err := store.LoadOverrides(ctx, *sheetId)
	if err != nil {
		config.LogError(logger, "main.go", "main", "LoadOverrides", *sheetId, err)
		os.Exit(1)
	}

	rebuilt, err := workflow.Recalculate(months, rows, overrides)
	if err != nil {
		config.LogError(logger, "main.go", "main", "Recalculate", *sheetId, err)
		os.Exit(1)
	}
	groups := workflow.Consolidate(months, rebuilt, overrides)
	warnings := models.DetectDuplicateRows(rebuilt)

	logger.WithFields(logrus.Fields{
		"sheet_id":    *sheetId,
		"row_count":   len(rebuilt),
		"group_count": len(groups),
		"warnings":    len(warnings),
		"dry_run":     *dryRun,
	}).Info("rebuild.computed")
	for _, w := range warnings {
		logger.WithFields(logrus.Fields{
			"sheet_id": *sheetId,
			"product":  w.ProductName,
			"customer": w.CustomerName,
			"row_ids":  w.RowIDs,
		}).Warn("rebuild.duplicate_rows")
	}

	if *dryRun {
		return
	}

	if err := store.ReplaceRows(ctx, *sheetId, rebuilt); err != nil {
		config.LogError(logger, "main.go", "main", "ReplaceRows", *sheetId, err)
		os.Exit(1)
	}
	logger.WithField("sheet_id", *sheetId).Info("rebuild.saved")
}
