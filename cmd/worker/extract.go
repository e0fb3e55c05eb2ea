package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adverant/nexus/ocr-worker/internal/document"
	"github.com/adverant/nexus/ocr-worker/internal/processor"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Recognize and correct one local document",
	Long: `Process a single image or PDF through the full pipeline and print the result
as JSON. Correction, scoring and vocabulary learning are on by default.`,
	Example: `  # Extract an identity card scan
  ocr-worker extract ktp.jpg --language id

  # Enhance a faded scan and normalize old spelling and amounts
  ocr-worker extract arsip.pdf --enhance --normalize-spelling --normalize-currency

  # Raw engine output only
  ocr-worker extract scan.png --no-correct --no-score --no-learn -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	registerExtractFlags(extractCmd)
}

func registerExtractFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (default: stdout)")
	f.String("language", "", "Recognition language: id, en or mixed (default: DEFAULT_LANGUAGE)")
	f.String("engine", "", "Engine variant: auto, process or inprocess (default: DEFAULT_ENGINE)")
	f.Bool("enhance", false, "Run the image enhancement pipeline before recognition")
	f.Bool("no-correct", false, "Skip dictionary and phrase correction")
	f.Bool("normalize-spelling", false, "Produce normalized text with modern spelling")
	f.Bool("normalize-currency", false, "Produce normalized text with cleaned amounts and years")
	f.Bool("no-score", false, "Skip quality scoring")
	f.Bool("no-learn", false, "Do not track unknown words")
	f.Int("timeout", 0, "Processing timeout in seconds (default: PROCESSING_TIMEOUT)")
}

// extractRequest builds the processor request from the command flags.
func extractRequest(cmd *cobra.Command, filename string, data []byte) *processor.ProcessRequest {
	f := cmd.Flags()
	language, _ := f.GetString("language")
	engineName, _ := f.GetString("engine")
	enhance, _ := f.GetBool("enhance")
	noCorrect, _ := f.GetBool("no-correct")
	spelling, _ := f.GetBool("normalize-spelling")
	currency, _ := f.GetBool("normalize-currency")
	noScore, _ := f.GetBool("no-score")
	noLearn, _ := f.GetBool("no-learn")

	if language == "" {
		language = cfg.DefaultLanguage
	}
	if engineName == "" {
		engineName = cfg.DefaultEngine
	}
	if !f.Changed("enhance") {
		enhance = cfg.DefaultEnhance
	}

	opts := document.DefaultOptions()
	opts.Correct = !noCorrect
	opts.Score = !noScore
	opts.Learn = !noLearn
	opts.NormalizeSpelling = spelling
	opts.NormalizeCurrency = currency

	return &processor.ProcessRequest{
		JobID:      uuid.NewString(),
		Filename:   filename,
		FileBuffer: data,
		Language:   language,
		Engine:     engineName,
		Enhance:    enhance,
		Options:    opts,
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	timeout := cfg.JobTimeout()
	if secs, _ := cmd.Flags().GetInt("timeout"); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := newApp(ctx, cfg, appOptions{engines: true, notifier: true, actor: "cli"})
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.processor.ProcessDocument(ctx, extractRequest(cmd, filepath.Base(path), data))
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	return writeJSON(cmd.OutOrStdout(), outputPath, result)
}

// writeJSON writes v indented to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v interface{}) error {
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		w = file
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
