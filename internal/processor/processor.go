/**
 * Document Processor for the OCR worker
 *
 * Orchestrates one document end to end:
 * - decode into pages (images directly, PDFs rasterized)
 * - per page: enhance (falling back to the simple pipeline) and recognize
 * - reassemble pages in order, correct, learn unknown words
 * - score, write the audit event and optionally index the result
 */

package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
	"github.com/adverant/nexus/ocr-worker/internal/correction"
	"github.com/adverant/nexus/ocr-worker/internal/document"
	"github.com/adverant/nexus/ocr-worker/internal/engine"
	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/metrics"
	"github.com/adverant/nexus/ocr-worker/internal/preprocess"
	"github.com/adverant/nexus/ocr-worker/internal/scoring"
	"github.com/adverant/nexus/ocr-worker/internal/storage"
	"github.com/adverant/nexus/ocr-worker/internal/vocabulary"
)

// DocumentProcessorInterface defines the interface for document processing
type DocumentProcessorInterface interface {
	ProcessDocument(ctx context.Context, req *ProcessRequest) (*ProcessResult, error)
	UpdateJobStatus(ctx context.Context, jobID string, status string, progress int, metadata map[string]interface{}) error
}

// JobStore persists job status.
type JobStore interface {
	UpdateJobStatus(ctx context.Context, update *storage.JobUpdate) error
}

// DocumentIndex stores processed documents for near-duplicate search.
type DocumentIndex interface {
	IndexDocument(ctx context.Context, input *storage.IndexInput) (string, error)
}

// FileFetcher downloads files referenced by URL.
type FileFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	Decoder      *document.Decoder
	Engines      *engine.Registry
	Preprocessor *preprocess.Preprocessor
	Corrector    *correction.Engine
	Vocabulary   *vocabulary.Vocabulary
	Scorer       *scoring.Scorer
	Scheduler    *PageScheduler
	Audit        audit.Sink
	Jobs         JobStore      // optional
	Index        DocumentIndex // optional
	Files        FileFetcher   // optional, required for FileURL requests
	MaxFileSize  int64
	Logger       *logging.Logger
}

// ProcessRequest represents a document processing request
type ProcessRequest struct {
	JobID      string
	Filename   string
	FileURL    string
	FileBuffer []byte
	Language   string
	Engine     string
	Enhance    bool
	Options    document.Options
}

// ProcessResult represents the processing result
type ProcessResult struct {
	JobID            string          `json:"job_id"`
	Text             string          `json:"text"`
	NormalizedText   string          `json:"normalized_text,omitempty"`
	CorrectionsCount int             `json:"corrections_count"`
	SpellingChanges  int             `json:"spelling_changes,omitempty"`
	NumberFixes      int             `json:"number_fixes,omitempty"`
	LearnedWords     int             `json:"learned_words,omitempty"`
	Quality          *scoring.Result `json:"quality_score,omitempty"`
	PageCount        int             `json:"page_count"`
	Confidence       float64         `json:"confidence"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	EngineUsed       string          `json:"engine_used"`
	Language         string          `json:"language"`
	IndexPointID     string          `json:"index_point_id,omitempty"`
	State            string          `json:"state"`
}

// DocumentProcessor handles document processing
type DocumentProcessor struct {
	decoder      *document.Decoder
	engines      *engine.Registry
	preprocessor *preprocess.Preprocessor
	corrector    *correction.Engine
	vocabulary   *vocabulary.Vocabulary
	scorer       *scoring.Scorer
	scheduler    *PageScheduler
	audit        audit.Sink
	jobs         JobStore
	index        DocumentIndex
	files        FileFetcher
	maxFileSize  int64
	logger       *logging.Logger
}

// NewDocumentProcessor creates a new document processor
func NewDocumentProcessor(cfg *ProcessorConfig) (*DocumentProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.Decoder == nil {
		return nil, fmt.Errorf("decoder is required")
	}

	if cfg.Engines == nil {
		return nil, fmt.Errorf("engine registry is required")
	}

	p := &DocumentProcessor{
		decoder:      cfg.Decoder,
		engines:      cfg.Engines,
		preprocessor: cfg.Preprocessor,
		corrector:    cfg.Corrector,
		vocabulary:   cfg.Vocabulary,
		scorer:       cfg.Scorer,
		scheduler:    cfg.Scheduler,
		audit:        cfg.Audit,
		jobs:         cfg.Jobs,
		index:        cfg.Index,
		files:        cfg.Files,
		maxFileSize:  cfg.MaxFileSize,
		logger:       cfg.Logger,
	}

	if p.logger == nil {
		p.logger = logging.NewLogger("processor")
	}
	if p.preprocessor == nil {
		p.preprocessor = preprocess.New(preprocess.DefaultOptions())
	}
	if p.corrector == nil {
		p.corrector = correction.NewEngine(correction.Config{Cutoff: correction.DefaultCutoff, Fuzzy: true})
	}
	if p.scorer == nil {
		p.scorer = scoring.NewScorer(scoring.Weights{})
	}
	if p.scheduler == nil {
		p.scheduler = &PageScheduler{Workers: 1, Logger: p.logger}
	}
	if p.audit == nil {
		p.audit = audit.NewLogSink(p.logger.Named("audit"))
	}

	return p, nil
}

// ProcessDocument processes a document through the complete pipeline. A
// failure of any page fails the whole document.
func (p *DocumentProcessor) ProcessDocument(ctx context.Context, req *ProcessRequest) (*ProcessResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	start := time.Now()
	sm := newStateMachine(req.JobID, p.logger)

	p.logger.Info("Starting document processing pipeline", "jobId", req.JobID, "filename", req.Filename)

	event := audit.Event{
		RequestID: req.JobID,
		Filename:  req.Filename,
		Language:  req.Language,
		Timestamp: start,
	}

	result, err := p.process(ctx, req, sm, &event)
	duration := time.Since(start)
	metrics.DocumentDuration.Observe(duration.Seconds())

	event.Duration = duration
	if err != nil {
		code := apperrors.CodeOf(err)
		if ctx.Err() == context.DeadlineExceeded && code == apperrors.ErrorInternal {
			code = apperrors.ErrorProcessingTimeout
		}
		sm.fail(string(code))
		metrics.DocumentsProcessed.WithLabelValues(string(code)).Inc()

		event.Success = false
		event.ErrorCode = string(code)
		event.ErrorMessage = err.Error()
		p.recordRequest(ctx, event)

		p.logger.Error("Document processing failed", "jobId", req.JobID, "errorCode", string(code), "durationMs", duration.Milliseconds(), "error", err)
		return nil, err
	}

	result.ProcessingTimeMs = duration.Milliseconds()
	result.State = sm.current().String()
	metrics.DocumentsProcessed.WithLabelValues("success").Inc()

	event.Success = true
	event.TextPreview = result.Text
	if result.Quality != nil {
		event.Quality = result.Quality.Overall
	}
	p.recordRequest(ctx, event)

	p.logger.Info("Processing pipeline complete",
		"jobId", req.JobID,
		"pages", result.PageCount,
		"corrections", result.CorrectionsCount,
		"engine", result.EngineUsed,
		"durationMs", result.ProcessingTimeMs)

	return result, nil
}

func (p *DocumentProcessor) process(ctx context.Context, req *ProcessRequest, sm *stateMachine, event *audit.Event) (*ProcessResult, error) {
	// Step 1: load and validate the file
	fileData, err := p.loadFile(ctx, req)
	if err != nil {
		return nil, err
	}
	event.FileSize = int64(len(fileData))

	kind, err := document.ValidateUpload(req.JobID, req.Filename, int64(len(fileData)), p.maxFileSize)
	if err != nil {
		return nil, err
	}
	if sniffed, ok := sniffKind(fileData); ok && sniffed != kind {
		p.logger.Warn("File content does not match its extension", "jobId", req.JobID, "declared", kind.String(), "detected", sniffed.String())
		kind = sniffed
	}

	lang, err := engine.ParseLanguage(req.Language)
	if err != nil {
		p.logger.Warn("Unknown language, using mixed", "jobId", req.JobID, "language", req.Language)
	}
	engineKind, err := engine.ParseKind(req.Engine)
	if err != nil {
		p.logger.Warn("Unknown engine, using auto", "jobId", req.JobID, "engine", req.Engine)
	}
	event.Language = string(lang)

	doc := &document.Document{
		ID:       req.JobID,
		Filename: req.Filename,
		Data:     fileData,
		Kind:     kind,
		Language: lang,
		Engine:   engineKind,
		Enhance:  req.Enhance,
		Options:  req.Options,
	}

	// Step 2: decode pages
	pages, err := p.decoder.Decode(ctx, doc)
	if err != nil {
		return nil, err
	}
	event.Pages = len(pages)

	eng := p.engines.Resolve(doc.Engine)
	if eng == nil {
		return nil, apperrors.NewEngineUnavailableError(nil, fmt.Errorf("no engine for %s", doc.Engine))
	}
	event.Engine = eng.Name()

	// Step 3: enhance every page before any page is recognized
	degraded := make([]preprocess.DegradedReason, len(pages))
	if doc.Enhance {
		pages, err = p.scheduler.Prepare(ctx, pages, func(i int, page document.Page) document.Page {
			page, degraded[i] = p.enhance(doc.ID, page)
			return page
		})
		if err != nil {
			return nil, err
		}
	}
	if err := sm.advance(StatePreprocessed); err != nil {
		return nil, err
	}

	// Step 4: recognize pages
	if err := sm.advance(StateRecognizing); err != nil {
		return nil, err
	}
	results, err := p.scheduler.Run(ctx, doc.ID, pages, p.pageTask(doc, eng))
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Degraded = degraded[i]
	}
	assembled := Assemble(results, doc.Kind.Paginated())
	if assembled.Text == "" {
		p.logger.Warn("No text recognized", "jobId", doc.ID, "pages", assembled.Pages)
	}

	// Step 5: correct and learn
	if err := sm.advance(StateCorrecting); err != nil {
		return nil, err
	}
	result := &ProcessResult{
		JobID:      doc.ID,
		Text:       assembled.Text,
		PageCount:  assembled.Pages,
		Confidence: assembled.MeanConfidence(),
		EngineUsed: eng.Name(),
		Language:   string(doc.Language),
	}
	p.correct(ctx, doc, result)

	// Step 6: score
	if err := sm.advance(StateScored); err != nil {
		return nil, err
	}
	if doc.Options.Score {
		final := result.Text
		if result.NormalizedText != "" {
			final = result.NormalizedText
		}
		q := p.scorer.Score(final, assembled.Confidences, result.CorrectionsCount, p.dictionary())
		result.Quality = &q
		metrics.QualityScore.Observe(float64(q.Overall))
	}

	// Step 7: index for near-duplicate search
	if p.index != nil && result.Text != "" {
		quality := 0
		if result.Quality != nil {
			quality = result.Quality.Overall
		}
		pointID, err := p.index.IndexDocument(ctx, &storage.IndexInput{
			JobID:    doc.ID,
			Filename: doc.Filename,
			Text:     result.Text,
			Pages:    result.PageCount,
			Quality:  quality,
		})
		if err != nil {
			p.logger.Warn("Failed to index document", "jobId", doc.ID, "error", err)
		} else {
			result.IndexPointID = pointID
		}
	}

	if err := sm.advance(StateDone); err != nil {
		return nil, err
	}
	return result, nil
}

// enhance runs the enhancement pipeline on one page and switches to the
// fallback pipeline when it degrades.
func (p *DocumentProcessor) enhance(jobID string, page document.Page) (document.Page, preprocess.DegradedReason) {
	enhanced, err := p.preprocessor.Enhance(page.Image)
	if err == nil {
		page.Image = enhanced
		return page, preprocess.ReasonNone
	}

	reason := preprocess.ReasonStageFailure
	var de *preprocess.DegradedError
	if errors.As(err, &de) {
		reason = de.Reason
	}
	metrics.Degradations.WithLabelValues("preprocessing").Inc()
	p.logger.Warn("Preprocessing degraded, using fallback",
		"jobId", jobID,
		"page", page.Index+1,
		"error", apperrors.NewDegradedError(apperrors.ErrorPreprocessingDegraded, err.Error()))
	page.Image = preprocess.Fallback(page.Image)
	return page, reason
}

// pageTask recognizes one prepared page with eng.
func (p *DocumentProcessor) pageTask(doc *document.Document, eng engine.Engine) PageTask {
	return func(ctx context.Context, page document.Page) (PageResult, error) {
		start := time.Now()
		rec, err := eng.Recognize(ctx, page.Image, doc.Language)
		elapsed := time.Since(start)
		metrics.RecognitionDuration.WithLabelValues(eng.Name()).Observe(elapsed.Seconds())
		if err != nil {
			return PageResult{}, err
		}
		metrics.PagesRecognized.WithLabelValues(eng.Name()).Inc()

		return PageResult{
			Index:       page.Index,
			Text:        rec.Text,
			Confidences: rec.Confidences,
			Duration:    elapsed,
		}, nil
	}
}

// correct runs the correction stages and tracks words the dictionary does
// not know. Learning failures are logged and never fail the document.
func (p *DocumentProcessor) correct(ctx context.Context, doc *document.Document, result *ProcessResult) {
	opts := doc.Options
	if opts.Correct {
		res := p.corrector.Run(result.Text, p.dictionary(), correction.Options{})
		if res.Degraded && result.Text != "" {
			metrics.Degradations.WithLabelValues("correction").Inc()
			p.logger.Warn("Correction degraded to phrase tables", "jobId", doc.ID,
				"error", apperrors.NewDegradedError(apperrors.ErrorCorrectionDegraded, "fuzzy matching unavailable"))
		}
		result.Text = res.Text
		result.CorrectionsCount = res.Corrections
		metrics.Corrections.WithLabelValues("phrase").Add(float64(res.PhraseCorrections))
		metrics.Corrections.WithLabelValues("word").Add(float64(res.WordCorrections))
	}

	if opts.NormalizeSpelling || opts.NormalizeCurrency {
		normalized := result.Text
		if opts.NormalizeSpelling {
			normalized, result.SpellingChanges = correction.NormalizeSpelling(normalized)
			metrics.Corrections.WithLabelValues("spelling").Add(float64(result.SpellingChanges))
		}
		if opts.NormalizeCurrency {
			normalized, result.NumberFixes = correction.NormalizeNumbers(normalized)
			result.CorrectionsCount += correction.CountNumberFixes(result.NumberFixes)
			metrics.Corrections.WithLabelValues("number").Add(float64(result.NumberFixes))
		}
		result.NormalizedText = normalized
	}

	if opts.Learn && p.vocabulary != nil && result.Text != "" {
		unknown := p.vocabulary.UnknownWords(result.Text)
		approved, err := p.vocabulary.Track(ctx, unknown)
		if err != nil {
			p.logger.Warn("Failed to track unknown words", "jobId", doc.ID, "words", len(unknown), "error", err)
			return
		}
		result.LearnedWords = approved
	}
}

func (p *DocumentProcessor) dictionary() correction.Dictionary {
	if p.vocabulary == nil {
		return correction.BaseDictionary()
	}
	return p.vocabulary.Dictionary()
}

// recordRequest writes the audit event even when ctx is already done.
func (p *DocumentProcessor) recordRequest(ctx context.Context, event audit.Event) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.audit.RecordRequest(actx, event); err != nil {
		p.logger.Warn("Failed to record request history", "jobId", event.RequestID, "error", err)
	}
}

// UpdateJobStatus updates job status in database
func (p *DocumentProcessor) UpdateJobStatus(ctx context.Context, jobID string, status string, progress int, metadata map[string]interface{}) error {
	if p.jobs == nil {
		return nil
	}

	update := &storage.JobUpdate{
		JobID:    jobID,
		Status:   status,
		Progress: progress,
		Metadata: metadata,
	}

	// Extract specific fields from metadata if present
	if metadata != nil {
		if confidence, ok := metadata["confidence"].(float64); ok {
			update.Confidence = confidence
		}
		if processingTime, ok := metadata["processingTime"].(int64); ok {
			update.ProcessingTimeMs = processingTime
		}
		if quality, ok := metadata["qualityScore"].(int); ok {
			update.QualityScore = quality
		}
		if engineUsed, ok := metadata["engineUsed"].(string); ok {
			update.EngineUsed = engineUsed
		}
		if errorMsg, ok := metadata["error"].(string); ok {
			update.ErrorCode = string(apperrors.ErrorInternal)
			update.ErrorMessage = errorMsg
		}
		if code, ok := metadata["error_code"].(string); ok {
			update.ErrorCode = code
		}
		if msg, ok := metadata["message"].(string); ok && update.ErrorMessage == "" {
			update.ErrorMessage = msg
		}
	}

	return p.jobs.UpdateJobStatus(ctx, update)
}

// loadFile loads file from URL or buffer
func (p *DocumentProcessor) loadFile(ctx context.Context, req *ProcessRequest) ([]byte, error) {
	// If buffer is provided, use it directly
	if len(req.FileBuffer) > 0 {
		p.logger.Debug("Using file buffer", "jobId", req.JobID, "bytes", len(req.FileBuffer))
		return req.FileBuffer, nil
	}

	// If URL is provided, download it
	if req.FileURL != "" {
		if p.files == nil {
			return nil, fmt.Errorf("no file client configured for %s", req.FileURL)
		}
		p.logger.Info("Downloading file", "jobId", req.JobID, "url", req.FileURL)
		fileData, err := p.files.Fetch(ctx, req.FileURL)
		if err != nil {
			return nil, fmt.Errorf("failed to download file: %w", err)
		}
		return fileData, nil
	}

	return nil, apperrors.NewUnsupportedInputError(req.JobID, apperrors.ErrorFileEmpty, "no file source provided (buffer or URL)", nil)
}

// sniffKind detects PDFs and the supported image formats from magic bytes.
func sniffKind(data []byte) (document.Kind, bool) {
	if len(data) < 4 {
		return document.KindImage, false
	}

	// PDF: %PDF-
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return document.KindPDF, true
	}

	switch {
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}): // PNG
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}): // JPEG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
	case len(data) > 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP":
	case bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}), bytes.HasPrefix(data, []byte{0x4D, 0x4D, 0x00, 0x2A}): // TIFF
	case bytes.HasPrefix(data, []byte("BM")):
	default:
		return document.KindImage, false
	}
	return document.KindImage, true
}
