/**
 * OCR Worker - Main Entry Point
 *
 * Post-recognition correction pipeline for Indonesian documents.
 *
 * Commands:
 * - run:     queue worker (Redis list or asynq) with a metrics endpoint
 * - extract: process one local file and print the JSON result
 * - submit:  enqueue a local file for the workers
 * - vocab:   review, approve, export, import and audit learned words
 * - history: recorded requests, newest first
 * - stats:   request history and storage statistics
 * - similar: near-duplicate search in the document index
 * - job:     recorded status of a queued job
 */

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/adverant/nexus/ocr-worker/internal/config"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

var (
	configPath string
	envFile    string
	version    = "dev"

	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ocr-worker",
	Short: "OCR correction worker for Indonesian documents",
	Long: `ocr-worker recognizes scanned images and PDFs, corrects common OCR errors in
Indonesian text, learns new vocabulary from processed documents and scores the
quality of every result.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logging.Configure(loaded.LogLevel, loaded.LogFormat); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ocr-worker.yaml", "YAML configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(jobCmd)
}
