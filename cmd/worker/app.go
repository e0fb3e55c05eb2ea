package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
	"github.com/adverant/nexus/ocr-worker/internal/clients"
	"github.com/adverant/nexus/ocr-worker/internal/config"
	"github.com/adverant/nexus/ocr-worker/internal/correction"
	"github.com/adverant/nexus/ocr-worker/internal/document"
	"github.com/adverant/nexus/ocr-worker/internal/engine"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/preprocess"
	"github.com/adverant/nexus/ocr-worker/internal/processor"
	"github.com/adverant/nexus/ocr-worker/internal/scoring"
	"github.com/adverant/nexus/ocr-worker/internal/storage"
	"github.com/adverant/nexus/ocr-worker/internal/vocabulary"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	workerID  string
	storage   *storage.StorageManager
	audit     audit.Sink
	history   audit.Reader
	notifier  *storage.RedisNotifier
	vocab     *vocabulary.Vocabulary
	engines   *engine.Registry
	processor *processor.DocumentProcessor
}

type appOptions struct {
	engines  bool // check recognition engines and build the processor
	notifier bool // connect the vocabulary pub/sub channel
	actor    string
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logging.NewLogger("worker"),
		workerID: workerID(),
	}

	sm, err := storage.NewStorageManager(ctx, storage.Options{
		DatabaseURL:      cfg.DatabaseURL,
		QdrantURL:        cfg.QdrantURL,
		QdrantCollection: cfg.QdrantCollection,
	}, a.logger.Named("storage"))
	if err != nil {
		return nil, err
	}
	a.storage = sm

	var store vocabulary.Store
	if pg := sm.Postgres(); pg != nil {
		store = pg
		a.audit = pg
		a.history = pg
	} else {
		a.logger.Warn("DATABASE_URL not set, vocabulary and history are kept in memory")
		store = vocabulary.NewMemoryStore()
		memLog := audit.NewMemoryLog(a.logger.Named("audit"), audit.DefaultMemoryCapacity)
		a.audit = memLog
		a.history = memLog
	}

	vocabOpts := []vocabulary.Option{
		vocabulary.WithThreshold(cfg.ApprovalThreshold),
		vocabulary.WithAudit(a.audit, opts.actor),
		vocabulary.WithLogger(a.logger.Named("vocabulary")),
	}
	if opts.notifier {
		notifier, err := storage.NewRedisNotifier(ctx, cfg.RedisURL, storage.DefaultVocabularyChannel, a.workerID, a.logger.Named("notifier"))
		if err != nil {
			a.logger.Warn("Vocabulary change broadcast disabled", "error", err)
		} else {
			a.notifier = notifier
			vocabOpts = append(vocabOpts, vocabulary.WithNotifier(notifier))
		}
	}
	a.vocab = vocabulary.New(store, correction.BaseWords(), vocabOpts...)
	if err := a.vocab.Refresh(ctx); err != nil {
		a.close()
		return nil, err
	}

	if !opts.engines {
		return a, nil
	}

	a.engines, err = engine.NewRegistry(ctx, engine.RegistryConfig{
		TesseractPath: cfg.TesseractPath,
		TempDir:       cfg.TempDir,
		DPI:           cfg.PDFDPI,
		PoolSize:      cfg.PDFWorkers,
	}, a.logger.Named("engine"))
	if err != nil {
		a.close()
		return nil, err
	}

	preOpts := preprocess.DefaultOptions()
	preOpts.Deskew = cfg.DeskewEnabled

	procCfg := &processor.ProcessorConfig{
		Decoder: &document.Decoder{
			Rasterizer:   &document.PopplerRasterizer{Path: cfg.PdftoppmPath, TempDir: cfg.TempDir},
			DPI:          cfg.PDFDPI,
			MaxDimension: cfg.MaxImageDimension,
		},
		Engines:      a.engines,
		Preprocessor: preprocess.New(preOpts),
		Corrector:    correction.NewEngine(correction.Config{Cutoff: cfg.FuzzyCutoff, Fuzzy: cfg.Fuzzy()}),
		Vocabulary:   a.vocab,
		Scorer: scoring.NewScorer(scoring.Weights{
			Confidence: cfg.WeightConfidence,
			Dictionary: cfg.WeightDictionary,
			Correction: cfg.WeightCorrection,
		}),
		Scheduler: &processor.PageScheduler{
			Workers:     cfg.PDFWorkers,
			Parallel:    cfg.Parallel(),
			PageTimeout: cfg.PageTimeout(),
			Logger:      a.logger.Named("scheduler"),
		},
		Audit:       a.audit,
		Jobs:        sm,
		Files:       clients.NewFileClient(clients.FileClientConfig{MaxFileSize: cfg.MaxFileSize, Logger: a.logger.Named("files")}),
		MaxFileSize: cfg.MaxFileSize,
		Logger:      a.logger.Named("processor"),
	}
	if sm.Indexing() {
		procCfg.Index = sm
	}

	a.processor, err = processor.NewDocumentProcessor(procCfg)
	if err != nil {
		a.close()
		return nil, err
	}

	a.logger.Info("Components initialized",
		"engines", fmt.Sprint(a.engines.Available()),
		"database", sm.Postgres() != nil,
		"index", sm.Indexing(),
		"preprocess", preprocess.Backend,
		"parallelPages", cfg.Parallel(),
		"pageWorkers", cfg.PDFWorkers)

	return a, nil
}

func (a *app) close() {
	if a.engines != nil {
		if err := a.engines.Close(); err != nil {
			a.logger.Warn("Error closing engines", "error", err)
		}
	}
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.logger.Warn("Error closing notifier", "error", err)
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("Error closing storage manager", "error", err)
		}
	}
	a.logger.Sync()
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return host + "-" + uuid.NewString()[:8]
}
