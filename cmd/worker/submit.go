package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adverant/nexus/ocr-worker/internal/document"
	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/queue"
)

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Enqueue a local document for the workers",
	Long: `Validate a local file and push it onto the configured queue backend.
Images are checked for a readable header before they are queued.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	registerSubmitFlags(submitCmd)
}

func registerSubmitFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("job-id", "", "Job id (default: random UUID)")
	f.String("language", "", "Recognition language: id, en or mixed")
	f.String("engine", "", "Engine variant: auto, process or inprocess")
	f.Bool("enhance", false, "Run the image enhancement pipeline before recognition")
	f.Bool("no-correct", false, "Skip dictionary and phrase correction")
	f.Bool("normalize-spelling", false, "Produce normalized text with modern spelling")
	f.Bool("normalize-currency", false, "Produce normalized text with cleaned amounts and years")
	f.Int("max-retries", 3, "Retries for transient failures")
}

// submitPayload validates the file and builds the queued payload.
func submitPayload(cmd *cobra.Command, filename string, data []byte, maxSize int64) (*queue.JobPayload, error) {
	jobID, _ := cmd.Flags().GetString("job-id")
	if jobID == "" {
		jobID = uuid.NewString()
	}

	kind, err := document.ValidateUpload(jobID, filename, int64(len(data)), maxSize)
	if err != nil {
		return nil, err
	}
	if kind == document.KindImage {
		if _, _, err := document.DecodeConfig(data); err != nil {
			return nil, apperrors.NewUnsupportedInputError(jobID, apperrors.ErrorFileCorrupted, "image header could not be read", err)
		}
	}

	f := cmd.Flags()
	language, _ := f.GetString("language")
	engineName, _ := f.GetString("engine")
	enhance, _ := f.GetBool("enhance")
	noCorrect, _ := f.GetBool("no-correct")
	spelling, _ := f.GetBool("normalize-spelling")
	currency, _ := f.GetBool("normalize-currency")

	payload := &queue.JobPayload{
		JobID:             jobID,
		Filename:          filename,
		Language:          language,
		Engine:            engineName,
		Enhance:           enhance,
		NormalizeSpelling: spelling,
		NormalizeCurrency: currency,
		FileBuffer:        data,
	}
	if noCorrect {
		correct := false
		payload.Correct = &correct
	}
	return payload, nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	payload, err := submitPayload(cmd, filepath.Base(path), data, cfg.MaxFileSize)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	var producer queue.Enqueuer
	switch cfg.QueueBackend {
	case "asynq":
		producer, err = queue.NewProducer(cfg.RedisURL, cfg.QueueName, maxRetries, cfg.JobTimeout())
	default:
		producer, err = queue.NewRedisProducer(ctx, cfg.RedisURL, cfg.QueueName, maxRetries)
	}
	if err != nil {
		return err
	}
	defer producer.Close()

	id, err := producer.Enqueue(ctx, payload)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as job %s on %s (%s)\n", payload.Filename, id, cfg.QueueName, cfg.QueueBackend)
	return nil
}
