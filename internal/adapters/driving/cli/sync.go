package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/policyledger/fedledger/internal/adapters/driving/cli/styles"
	"github.com/policyledger/fedledger/internal/adapters/driving/watch"
	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driving"
)

// progressInterval is how often a running batch is polled for progress.
var progressInterval = 500 * time.Millisecond

var (
	syncType      string
	syncPattern   string
	syncLimit     int
	syncDryRun    bool
	syncSaveRaw   bool
	syncParallel  bool
	syncWorkers   int
	syncOverwrite bool
	syncWriteMode string
	syncWatch     bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <source-dir>",
	Short: "Ingest a directory of documents",
	Long: `Ingests every document of one type found in a source directory.

Documents are discovered with --pattern (default *.html) or listed in a
manifest.yaml inside the directory. Each one is preserved under the raw
directory, extracted, validated and written to the Parquet and JSON sinks.
A document that fails is reported and does not stop the batch.

Accepted types: ` + strings.Join(domain.DocumentTypeNames(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.StringVarP(&syncType, "type", "t", "", "document type (required)")
	f.StringVar(&syncPattern, "pattern", "", "glob of files to ingest (default *.html)")
	f.IntVar(&syncLimit, "limit", 0, "process at most N documents (0 = all)")
	f.BoolVar(&syncDryRun, "dry-run", false, "list what would be processed without writing anything")
	f.BoolVar(&syncSaveRaw, "save-raw", true, "preserve raw bytes (overrides save_raw)")
	f.BoolVar(&syncParallel, "parallel", false, "process documents with max_workers workers")
	f.IntVar(&syncWorkers, "workers", 0, "worker pool size (overrides max_workers)")
	f.BoolVar(&syncOverwrite, "overwrite", false, "replace raw artifacts that already exist")
	f.StringVar(&syncWriteMode, "write-mode", "", "append or overwrite the sinks (overrides write_mode)")
	f.BoolVar(&syncWatch, "watch", false, "re-run when the source directory changes")
	_ = syncCmd.MarkFlagRequired("type")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	req := buildSyncRequest(cmd, args[0])

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func(ctx context.Context) error {
		result, err := syncWithProgress(ctx, cmd, syncOrchestrator, req)
		if result != nil {
			printSummary(cmd, result)
		}
		return err
	}

	if err := runOnce(ctx); err != nil {
		return err
	}
	if !syncWatch || req.DryRun {
		return nil
	}

	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", req.SourceDir)
	w := watch.New(watch.Config{Dir: req.SourceDir, Pattern: req.Pattern, Log: appLog})
	return w.Run(ctx, runOnce)
}

// buildSyncRequest layers the command flags over the resolved settings.
func buildSyncRequest(cmd *cobra.Command, dir string) driving.SyncRequest {
	flags := cmd.Flags()
	req := driving.SyncRequest{
		SourceDir: dir,
		Pattern:   syncPattern,
		DocType:   domain.ParseDocumentType(syncType),
		Limit:     syncLimit,
		DryRun:    syncDryRun,
		SaveRaw:   settings.SaveRaw,
		Overwrite: settings.Overwrite,
		Workers:   settings.Workers(),
		WriteMode: settings.WriteMode,
	}
	if flags.Changed("save-raw") {
		req.SaveRaw = syncSaveRaw
	}
	if flags.Changed("overwrite") {
		req.Overwrite = syncOverwrite
	}
	if syncParallel {
		req.Workers = settings.MaxWorkers
	}
	if flags.Changed("workers") {
		req.Workers = syncWorkers
	}
	if flags.Changed("write-mode") {
		req.WriteMode = domain.WriteMode(strings.ToLower(syncWriteMode))
	}
	return req
}

// syncWithProgress runs sync while displaying progress updates on a terminal.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	syncOrch driving.SyncOrchestrator,
	req driving.SyncRequest,
) (*domain.BatchResult, error) {
	type outcome struct {
		result *domain.BatchResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := syncOrch.Sync(ctx, req)
		done <- outcome{result, err}
	}()

	interactive := isTerminal(cmd.OutOrStdout())
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	lastCount := -1
	for {
		select {
		case out := <-done:
			if interactive && lastCount >= 0 {
				cmd.Print("\r\033[K")
			}
			return out.result, out.err
		case <-ticker.C:
			if !interactive {
				continue
			}
			// Best effort; a status error only hides the progress line.
			status, err := syncOrch.Status(ctx, req.DocType)
			if err != nil || status == nil || !status.Running {
				continue
			}
			count := status.DocumentsProcessed + status.ErrorCount
			if count != lastCount {
				cmd.Printf("\rProcessing... %d/%d documents (%d errors)", count, status.Total, status.ErrorCount)
				lastCount = count
			}
		}
	}
}

// printSummary reports counts and every failure of a batch.
func printSummary(cmd *cobra.Command, result *domain.BatchResult) {
	st := styles.For(isTerminal(cmd.OutOrStdout()))
	line := func(label string, value any) string {
		return st.Label.Render(label) + " " + fmt.Sprint(value) + "\n"
	}

	var b strings.Builder
	if result.DryRun {
		b.WriteString(st.Heading.Render(fmt.Sprintf("Dry run: %s", result.DocType)) + "\n")
		b.WriteString(line("would run", len(result.Preview)))
		for _, p := range result.Preview {
			b.WriteString("  " + p.Identifier.String() + "  " + st.Muted.Render(p.Location) + "\n")
		}
	} else {
		b.WriteString(st.Heading.Render(fmt.Sprintf("Batch %s: %s", result.RunID, result.DocType)) + "\n")
		b.WriteString(line("processed", st.Success.Render(fmt.Sprint(result.Processed))))
	}
	failed := fmt.Sprint(result.Failed)
	if result.Failed > 0 {
		failed = st.Error.Render(failed)
	}
	b.WriteString(line("failed", failed))
	b.WriteString(line("skipped", result.Skipped))
	if !result.DryRun {
		b.WriteString(line("duration", result.Duration().Round(time.Millisecond)))
		for _, path := range result.OutputFiles {
			b.WriteString(line("wrote", st.Muted.Render(path)))
		}
		if result.Validated > 0 && len(result.OutputFiles) == 0 {
			b.WriteString(st.Warning.Render(fmt.Sprintf("%d validated records were not persisted", result.Validated)) + "\n")
		}
	}

	if failures := result.SortedFailures(); len(failures) > 0 {
		b.WriteString("\n" + st.Heading.Render("Failures") + "\n")
		for _, f := range failures {
			fmt.Fprintf(&b, "  %s [%s] %s\n", f.Key, f.Stage, f.Reason)
		}
	}

	cmd.Println(st.Box.Render(strings.TrimRight(b.String(), "\n")))
}
