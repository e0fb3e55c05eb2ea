package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
	"github.com/adverant/nexus/ocr-worker/internal/vocabulary"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Manage learned vocabulary",
	Long: `Review the words learned from processed documents. Words are approved
automatically once they have been seen APPROVAL_THRESHOLD times; these commands
approve, reject, export and import them by hand. Every change is audited and
broadcast to running workers; "vocab audit" lists the recorded changes.`,
}

var vocabPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List words waiting for approval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withVocabulary(cmd, func(v *vocabulary.Vocabulary) error {
			words, err := v.Pending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORD\tFREQUENCY\tLAST SEEN")
			for _, w := range words {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", w.Word, w.Frequency, w.LastSeen.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

var vocabApproveCmd = &cobra.Command{
	Use:   "approve [word...]",
	Short: "Approve words for the dictionary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVocabulary(cmd, func(v *vocabulary.Vocabulary) error {
			for _, word := range args {
				ok, err := v.Approve(cmd.Context(), word)
				if err != nil {
					return err
				}
				reportChange(cmd, "approved", word, ok)
			}
			return nil
		})
	},
}

var vocabRejectCmd = &cobra.Command{
	Use:   "reject [word...]",
	Short: "Remove tracked words",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVocabulary(cmd, func(v *vocabulary.Vocabulary) error {
			for _, word := range args {
				ok, err := v.Reject(cmd.Context(), word)
				if err != nil {
					return err
				}
				reportChange(cmd, "rejected", word, ok)
			}
			return nil
		})
	},
}

var vocabStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vocabulary counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVocabulary(cmd, func(v *vocabulary.Vocabulary) error {
			stats, err := v.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), "", stats)
		})
	},
}

var vocabExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export approved and pending words as JSON",
	Long: `Export the learned vocabulary as JSON. By default the export holds every
approved word and up to 1000 pending words and can be imported again. With
--approved-only it is a plain list of approved words.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		approvedOnly, _ := cmd.Flags().GetBool("approved-only")
		return withVocabulary(cmd, func(v *vocabulary.Vocabulary) error {
			if approvedOnly {
				export, err := v.ExportApproved(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), output, export)
			}
			export, err := v.Export(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), output, export)
		})
	},
}

var vocabImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import words from an export file",
	Long: `Import words from a JSON file. The file is either an export produced by
"vocab export" or a plain array of {"word","frequency","is_approved"} entries.

With --plain the file is a text word list, one word per line. Every word is
merged with frequency 5 and approved unless --approve=false is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}

		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			words, err := vocabulary.ParseWordList(bytes.NewReader(data))
			if err != nil {
				return err
			}
			approve, _ := cmd.Flags().GetBool("approve")
			return withVocabulary(cmd, func(v *vocabulary.Vocabulary) error {
				result, err := v.ImportWordList(cmd.Context(), words, approve)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), "", result)
			})
		}

		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := vocabulary.ParseImportMode(modeFlag)
		if err != nil {
			return err
		}
		entries, err := parseImportFile(data)
		if err != nil {
			return err
		}
		return withVocabulary(cmd, func(v *vocabulary.Vocabulary) error {
			result, err := v.Import(cmd.Context(), entries, mode)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), "", result)
		})
	},
}

var vocabAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recorded vocabulary management events",
	Long: `List approvals, rejections, imports and exports, newest first. Without
DATABASE_URL only the events of the current process are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := auditQueryFromFlags(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, appOptions{actor: "cli"})
		if err != nil {
			return err
		}
		defer a.close()

		events, err := a.history.AdminEvents(cmd.Context(), q.eventType, q.limit, q.offset)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), "", map[string]interface{}{
			"total": len(events),
			"logs":  events,
		})
	},
}

func init() {
	vocabPendingCmd.Flags().Int("limit", 50, "Maximum number of words")
	vocabExportCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	vocabExportCmd.Flags().Bool("approved-only", false, "Export only the approved words as a plain list")
	vocabImportCmd.Flags().String("mode", "merge", "Import mode: merge, replace or approved_only")
	vocabImportCmd.Flags().Bool("plain", false, "Read a text word list, one word per line")
	vocabImportCmd.Flags().Bool("approve", true, "Approve words from a plain word list")
	registerAuditFlags(vocabAuditCmd)

	vocabCmd.AddCommand(vocabPendingCmd, vocabApproveCmd, vocabRejectCmd, vocabStatsCmd, vocabExportCmd, vocabImportCmd, vocabAuditCmd)
}

type auditQuery struct {
	eventType audit.AdminEventType
	limit     int
	offset    int
}

func registerAuditFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("type", "", "Event type: WORD_APPROVED, WORD_REJECTED, WORDS_IMPORTED or WORDS_EXPORTED")
	f.Int("limit", audit.DefaultAdminLimit, "Maximum number of events (at most 500)")
	f.Int("offset", 0, "Number of newest events to skip")
}

func auditQueryFromFlags(cmd *cobra.Command) (auditQuery, error) {
	typeFlag, _ := cmd.Flags().GetString("type")
	eventType, err := audit.ParseAdminEventType(typeFlag)
	if err != nil {
		return auditQuery{}, err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	if offset < 0 {
		return auditQuery{}, fmt.Errorf("offset must not be negative")
	}
	return auditQuery{
		eventType: eventType,
		limit:     audit.ClampLimit(limit, audit.DefaultAdminLimit, audit.MaxAdminLimit),
		offset:    offset,
	}, nil
}

func withVocabulary(cmd *cobra.Command, fn func(v *vocabulary.Vocabulary) error) error {
	a, err := newApp(cmd.Context(), cfg, appOptions{notifier: true, actor: "cli"})
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a.vocab)
}

func reportChange(cmd *cobra.Command, action, word string, ok bool) {
	if ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", action, word)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "not tracked: %s\n", word)
}

// parseImportFile accepts an export document or a bare entry array.
func parseImportFile(data []byte) ([]vocabulary.Entry, error) {
	var entries []vocabulary.Entry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}

	var export vocabulary.Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("import file is neither an export nor an entry list: %w", err)
	}
	if export.Version == "" && len(export.Approved) == 0 && len(export.Pending) == 0 {
		return nil, fmt.Errorf("import file contains no words")
	}
	return export.Entries(), nil
}
