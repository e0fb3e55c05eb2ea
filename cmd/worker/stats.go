package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show request history, vocabulary and storage statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, appOptions{actor: "cli"})
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.storage.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		vocab, err := a.vocab.Stats(cmd.Context())
		if err != nil {
			return err
		}
		stats["vocabulary"] = vocab
		return writeJSON(cmd.OutOrStdout(), "", stats)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List processed documents, newest first",
	Long: `List the recorded requests with their outcome, page count and quality
score. Without DATABASE_URL only the requests of the current process are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		if offset < 0 {
			return fmt.Errorf("offset must not be negative")
		}

		a, err := newApp(cmd.Context(), cfg, appOptions{actor: "cli"})
		if err != nil {
			return err
		}
		defer a.close()

		items, err := a.history.History(cmd.Context(), limit, offset)
		if err != nil {
			return err
		}
		total := len(items)
		if pg := a.storage.Postgres(); pg != nil {
			stats, err := pg.HistoryStats(cmd.Context())
			if err != nil {
				return err
			}
			total = stats.TotalRequests
		}
		return writeJSON(cmd.OutOrStdout(), "", map[string]interface{}{
			"total": total,
			"items": items,
		})
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar [text-file]",
	Short: "Find indexed documents similar to a text",
	Long: `Search the document index for documents whose corrected text is close to
the given text. Use "-" to read the text from stdin. Requires QDRANT_URL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			text []byte
			err  error
		)
		if args[0] == "-" {
			text, err = io.ReadAll(cmd.InOrStdin())
		} else {
			text, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read text: %w", err)
		}

		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), cfg, appOptions{actor: "cli"})
		if err != nil {
			return err
		}
		defer a.close()

		docs, err := a.storage.SimilarDocuments(cmd.Context(), string(text), limit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), "", docs)
	},
}

func init() {
	historyCmd.Flags().Int("limit", audit.DefaultHistoryLimit, "Maximum number of requests (at most 100)")
	historyCmd.Flags().Int("offset", 0, "Number of newest requests to skip")
	similarCmd.Flags().Int("limit", 5, "Maximum number of documents")
}

var jobCmd = &cobra.Command{
	Use:   "job [id]",
	Short: "Show the recorded status of a queued job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, appOptions{actor: "cli"})
		if err != nil {
			return err
		}
		defer a.close()

		pg := a.storage.Postgres()
		if pg == nil {
			return fmt.Errorf("job status requires DATABASE_URL")
		}
		job, err := pg.GetJobByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), "", job)
	},
}
