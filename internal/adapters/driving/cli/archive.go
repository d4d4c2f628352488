package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/policyledger/fedledger/internal/adapters/driving/cli/styles"
	"github.com/policyledger/fedledger/internal/core/domain"
)

// Output formats for list.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

var (
	listType   string
	listFormat string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Long:  `Lists the metadata entries of one document type, or of every type.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var infoCmd = &cobra.Command{
	Use:   "info <identifier>",
	Short: "Show everything known about a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the archive",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "document type (default all)")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", formatTable, "output format: table, json or csv")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(statsCmd)
}

// listEntry is the JSON shape of one listed document.
type listEntry struct {
	ID            string     `json:"doc_id"`
	DocType       string     `json:"doc_type"`
	Title         string     `json:"title,omitempty"`
	SourceURL     string     `json:"source_url"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	FetchedAt     *time.Time `json:"fetch_timestamp,omitempty"`
}

func runList(cmd *cobra.Command, _ []string) error {
	if archiveService == nil {
		return errors.New("archive service not configured")
	}

	var docType domain.DocumentType
	if listType != "" {
		docType = domain.ParseDocumentType(listType)
	}

	docs, err := archiveService.List(context.Background(), docType)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	format := strings.ToLower(listFormat)
	switch format {
	case formatJSON:
		entries := make([]listEntry, len(docs))
		for i, d := range docs {
			entries[i] = listEntry{
				ID:            d.Identifier.String(),
				DocType:       d.DocType.String(),
				Title:         d.Title,
				SourceURL:     d.SourceURL,
				PublishedDate: timePtr(d.PublishedDate),
				FetchedAt:     timePtr(d.FetchedAt),
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)

	case formatTable, formatCSV:
		if len(docs) == 0 && format == formatTable {
			cmd.Println("No documents found.")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"ID", "Type", "Published", "Title", "Source"})
		for _, d := range docs {
			t.AppendRow(table.Row{d.Identifier, d.DocType, formatDate(d.PublishedDate), d.Title, d.SourceURL})
		}
		if format == formatCSV {
			t.RenderCSV()
			return nil
		}
		t.SetStyle(table.StyleLight)
		t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d documents", len(docs))})
		t.Render()
		return nil

	default:
		return fmt.Errorf("%w: unknown format %q (want table, json or csv)", domain.ErrInvalidInput, listFormat)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	if archiveService == nil {
		return errors.New("archive service not configured")
	}

	info, err := archiveService.Info(context.Background(), domain.Identifier(strings.ToLower(args[0])))
	if err != nil {
		return err
	}

	st := styles.For(isTerminal(cmd.OutOrStdout()))
	cmd.Println(st.Heading.Render("Document " + info.Identifier.String()))

	if info.Values != nil {
		cmd.Printf("%s %s\n", st.Label.Render("type"), info.DocType)
		keys := make([]string, 0, len(info.Values))
		for k := range info.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == domain.ColumnDocID || k == domain.ColumnDocType || info.Values[k] == nil {
				continue
			}
			cmd.Printf("  %-22s %v\n", k, info.Values[k])
		}
	} else {
		cmd.Println(st.Muted.Render("No metadata entry."))
	}

	if info.Raw != nil {
		cmd.Printf("%s %s (%d bytes, %s)\n", st.Label.Render("raw"),
			info.Raw.Path, info.Raw.Size, info.Raw.ModTime.UTC().Format(time.RFC3339))
	} else {
		cmd.Println(st.Muted.Render("No raw artifact."))
	}

	if len(info.Failures) > 0 {
		cmd.Println(st.Heading.Render("Past failures"))
		for _, f := range info.Failures {
			cmd.Printf("  %s  run %s  [%s] %s\n",
				f.StartedAt.UTC().Format(time.RFC3339), f.RunID, f.Failure.Stage, f.Failure.Reason)
		}
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if archiveService == nil {
		return errors.New("archive service not configured")
	}

	stats, err := archiveService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	st := styles.For(isTerminal(cmd.OutOrStdout()))
	cmd.Println(st.Heading.Render("Archive"))

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Type", "Records", "Parquet rows", "Metadata"})
	for _, ts := range stats.Types {
		t.AppendRow(table.Row{ts.DocType, ts.Records, ts.ColumnarRows, ts.MetadataPath})
	}
	t.AppendFooter(table.Row{"total", stats.TotalRecords(), "", ""})
	t.Render()

	cmd.Printf("%s %d files, %s\n", st.Label.Render("raw"), stats.RawCount, formatBytes(stats.RawBytes))

	if len(stats.RecentRuns) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println(st.Heading.Render("Recent runs"))
	runs := table.NewWriter()
	runs.SetOutputMirror(cmd.OutOrStdout())
	runs.SetStyle(table.StyleLight)
	runs.AppendHeader(table.Row{"Started", "Type", "Processed", "Failed", "Skipped", "Run"})
	for _, r := range stats.RecentRuns {
		runs.AppendRow(table.Row{
			r.StartedAt.UTC().Format(time.RFC3339), r.DocType, r.Processed, r.Failed, r.Skipped, r.ID,
		})
	}
	runs.Render()
	return nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
