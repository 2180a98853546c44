// replicate-budget runs catalog replication for one released budget and
// prints the summary as JSON. Rerunning after a partial failure is safe:
// items already replicated are skipped.
//
// Usage:
//	go run ./cmd/replicate-budget -budget 42 [-dry-run] [-actor 7]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genautech/rewards_backend/config"
	"github.com/genautech/rewards_backend/store"
	"github.com/genautech/rewards_backend/workflow"
)

func main() {
	budgetID := flag.Int("budget", 0, "Required: budget id")
	dryRun := flag.Bool("dry-run", false, "Simulate without writing company products")
	actorID := flag.Int("actor", 0, "Optional: actor id recorded on the log (defaults to the budget's last editor)")
	flag.Parse()

	if *budgetID <= 0 {
		fmt.Fprintln(os.Stderr, "--budget is required")
		os.Exit(1)
	}
	if config.DatabaseDriver() == config.DriverMemory {
		fmt.Fprintln(os.Stderr, "DB_DRIVER=memory has no budgets; use mysql or sqlite")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := config.GetLogger()
	db := config.ConnectDatabaseWithRetry()
	repos := workflow.RepositoriesFrom(store.NewGormStore(db))

	// Share the server's lock when redis is configured so a CLI run never
	// overlaps a request for the same budget.
	var locker workflow.BudgetLocker = workflow.NewLocalBudgetLocker()
	if config.ConnectRedisWithRetry(ctx) {
		locker = workflow.NewRedisBudgetLocker(config.GetRedisLock(), config.ReplicationLockTTL(), logger)
		defer config.GetRedisDB().Close()
	}

	in := workflow.ReplicateBudgetInput{
		BudgetId: *budgetID,
		DryRun:   *dryRun,
		Source:   workflow.SourceCLI,
	}
	if *actorID > 0 {
		in.ActorId = actorID
	}

	summary, err := workflow.NewBudgetReplicator(repos, locker, logger).ReplicateBudget(ctx, in)
	if summary != nil {
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "replication failed: %v\n", err)
		os.Exit(1)
	}
	if summary.HasErrors() {
		os.Exit(1)
	}
}
