// settlement-replay reprocesses a stored settlement run from its archived
// file. Per-row ledger idempotency makes the replay safe: rows that already
// posted come back as Skipped, only previously failed rows move.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   GCS_SETTLEMENT_BUCKET=... go run ./cmd/settlement-replay -run <run_id>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/ingest"
	"bitbucket.org/mmdatafocus/billing_recon/models"
)

func main() {
	runId := flag.Int("run", 0, "settlement run id to replay")
	flag.Parse()
	if *runId <= 0 {
		fmt.Fprintln(os.Stderr, "usage: settlement-replay -run <run_id>")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var run models.SettlementFileRun
	if err := db.WithContext(ctx).Where("id = ?", *runId).Take(&run).Error; err != nil {
		fmt.Fprintf(os.Stderr, "load run %d: %v\n", *runId, err)
		os.Exit(1)
	}
	if run.StorageObject == "" {
		fmt.Fprintf(os.Stderr, "run %d has no archived file\n", *runId)
		os.Exit(1)
	}

	summary, err := ingest.ProcessRun(ctx, run.ID, run.BusinessId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay run %d: %v\n", *runId, err)
		os.Exit(1)
	}
	fmt.Printf("run %d replayed: status=%s total=%d succeeded=%d skipped=%d not_found=%d failed=%d\n",
		run.ID, summary.RunStatus(), summary.Total, summary.Succeeded, summary.Skipped, summary.NotFound, summary.Failed)
}
