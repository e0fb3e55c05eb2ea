package processor

import (
	"bytes"
	"context"
	stderrors "errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
	"github.com/adverant/nexus/ocr-worker/internal/correction"
	"github.com/adverant/nexus/ocr-worker/internal/document"
	"github.com/adverant/nexus/ocr-worker/internal/engine"
	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/storage"
	"github.com/adverant/nexus/ocr-worker/internal/vocabulary"
)

// scriptedEngine answers by page width so each page can be told apart.
type scriptedEngine struct {
	texts map[int]string
	slow  map[int]time.Duration
}

func (e *scriptedEngine) Kind() engine.Kind { return engine.KindProcess }
func (e *scriptedEngine) Name() string      { return "scripted" }

func (e *scriptedEngine) Recognize(ctx context.Context, img image.Image, _ engine.Language) (engine.Recognition, error) {
	w := img.Bounds().Dx()
	if d, ok := e.slow[w]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return engine.Recognition{}, ctx.Err()
		}
	}
	text := e.texts[w]
	if text == "" {
		return engine.Recognition{}, nil
	}
	return engine.Recognition{Text: text, Confidences: []float64{0.9, 0.8, 0.85}}, nil
}

type pageRasterizer struct {
	widths []int
}

func (r *pageRasterizer) Rasterize(context.Context, []byte, int) ([]image.Image, error) {
	pages := make([]image.Image, len(r.widths))
	for i, w := range r.widths {
		pages[i] = image.NewGray(image.Rect(0, 0, w, 60))
	}
	return pages, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) RecordRequest(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) RecordAdmin(context.Context, audit.AdminEvent) error { return nil }

func (s *recordingSink) last(t *testing.T) audit.Event {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.events)
	return s.events[len(s.events)-1]
}

type recordingJobs struct {
	updates []*storage.JobUpdate
}

func (j *recordingJobs) UpdateJobStatus(_ context.Context, u *storage.JobUpdate) error {
	j.updates = append(j.updates, u)
	return nil
}

type recordingIndex struct {
	inputs []*storage.IndexInput
}

func (i *recordingIndex) IndexDocument(_ context.Context, in *storage.IndexInput) (string, error) {
	i.inputs = append(i.inputs, in)
	return "point-1", nil
}

func pngOfWidth(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 220
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	processor *DocumentProcessor
	sink      *recordingSink
	jobs      *recordingJobs
	index     *recordingIndex
	vocab     *vocabulary.Vocabulary
	logs      *logging.TestLogger
}

func newFixture(t *testing.T, eng engine.Engine, rasterizer document.Rasterizer, scheduler *PageScheduler) *fixture {
	t.Helper()
	logs := logging.NewTestLogger()
	logger := logs.Logger
	registry, err := engine.NewStaticRegistry(eng)
	require.NoError(t, err)

	if scheduler == nil {
		scheduler = &PageScheduler{Workers: 2, Parallel: true, PageTimeout: time.Second}
	}
	scheduler.Logger = logger

	f := &fixture{
		sink:  &recordingSink{},
		jobs:  &recordingJobs{},
		index: &recordingIndex{},
		vocab: vocabulary.New(vocabulary.NewMemoryStore(), correction.BaseWords(), vocabulary.WithLogger(logger)),
		logs:  logs,
	}
	f.processor, err = NewDocumentProcessor(&ProcessorConfig{
		Decoder:     &document.Decoder{Rasterizer: rasterizer, DPI: 150},
		Engines:     registry,
		Vocabulary:  f.vocab,
		Scheduler:   scheduler,
		Audit:       f.sink,
		Jobs:        f.jobs,
		Index:       f.index,
		MaxFileSize: 10 << 20,
		Logger:      logger,
	})
	require.NoError(t, err)
	return f
}

func TestNewDocumentProcessor_RequiresCollaborators(t *testing.T) {
	_, err := NewDocumentProcessor(nil)
	assert.Error(t, err)
	_, err = NewDocumentProcessor(&ProcessorConfig{Decoder: &document.Decoder{}})
	assert.Error(t, err)
}

func TestProcessDocument_CorrectsAndScores(t *testing.T) {
	f := newFixture(t, &scriptedEngine{texts: map[int]string{40: "jalan krmat jakrta"}}, nil, nil)

	result, err := f.processor.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-1",
		Filename:   "alamat.png",
		FileBuffer: pngOfWidth(t, 40, 30),
		Language:   "id",
		Options:    document.Options{Correct: true, Score: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "jalan kramat jakarta", result.Text)
	assert.Equal(t, 2, result.CorrectionsCount)
	assert.Empty(t, result.NormalizedText)
	assert.Equal(t, 1, result.PageCount)
	assert.Equal(t, "scripted", result.EngineUsed)
	assert.Equal(t, "id", result.Language)
	assert.Equal(t, StateDone.String(), result.State)
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
	require.NotNil(t, result.Quality)
	assert.Equal(t, 3, result.Quality.TotalWords)
	assert.Equal(t, "point-1", result.IndexPointID)

	require.Len(t, f.index.inputs, 1)
	assert.Equal(t, "jalan kramat jakarta", f.index.inputs[0].Text)

	ev := f.sink.last(t)
	assert.True(t, ev.Success)
	assert.Equal(t, "alamat.png", ev.Filename)
	assert.Equal(t, 1, ev.Pages)
	assert.Equal(t, "scripted", ev.Engine)
	assert.Equal(t, result.Quality.Overall, ev.Quality)
}

func TestProcessDocument_NormalizationIsSeparate(t *testing.T) {
	f := newFixture(t, &scriptedEngine{texts: map[int]string{40: "gaji Rp.277.--"}}, nil, nil)

	result, err := f.processor.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-norm",
		Filename:   "gaji.png",
		FileBuffer: pngOfWidth(t, 40, 30),
		Options:    document.Options{NormalizeCurrency: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "gaji Rp.277.--", result.Text)
	assert.Equal(t, "gaji Rp 277,-", result.NormalizedText)
	assert.Positive(t, result.NumberFixes)
	assert.Equal(t, 1, result.CorrectionsCount, "a normalization pass counts once")
}

func TestProcessDocument_PagesInOrder(t *testing.T) {
	eng := &scriptedEngine{
		texts: map[int]string{101: "satu", 103: "tiga"},
		slow:  map[int]time.Duration{101: 40 * time.Millisecond},
	}
	f := newFixture(t, eng, &pageRasterizer{widths: []int{101, 102, 103}}, nil)

	result, err := f.processor.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-pdf",
		Filename:   "arsip.pdf",
		FileBuffer: []byte("%PDF-1.4 test"),
	})
	require.NoError(t, err)

	assert.Equal(t, "--- Halaman 1 ---\nsatu\n\n--- Halaman 3 ---\ntiga", result.Text)
	assert.Equal(t, 3, result.PageCount)
	assert.Nil(t, result.Quality)
}

func TestProcessDocument_PageTimeoutFailsDocument(t *testing.T) {
	eng := &scriptedEngine{
		texts: map[int]string{101: "satu", 102: "dua", 103: "tiga"},
		slow:  map[int]time.Duration{102: 5 * time.Second},
	}
	f := newFixture(t, eng, &pageRasterizer{widths: []int{101, 102, 103}},
		&PageScheduler{Workers: 3, Parallel: true, PageTimeout: 50 * time.Millisecond})

	result, err := f.processor.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-timeout",
		Filename:   "arsip.pdf",
		FileBuffer: []byte("%PDF-1.4 test"),
		Options:    document.DefaultOptions(),
	})

	require.Error(t, err)
	assert.Nil(t, result, "no partial result")
	assert.Equal(t, apperrors.ErrorRecognitionTimeout, apperrors.CodeOf(err))
	assert.True(t, stderrors.Is(err, apperrors.ErrRecognitionFailed))

	ev := f.sink.last(t)
	assert.False(t, ev.Success)
	assert.Equal(t, string(apperrors.ErrorRecognitionTimeout), ev.ErrorCode)
	assert.Equal(t, 3, ev.Pages)
	assert.Empty(t, f.index.inputs)
}

func TestProcessDocument_UnsupportedInput(t *testing.T) {
	f := newFixture(t, &scriptedEngine{}, nil, nil)

	tests := []struct {
		name     string
		filename string
		data     []byte
		code     apperrors.ErrorCode
	}{
		{"extension", "notes.txt", []byte("hello"), apperrors.ErrorFileTypeNotAllowed},
		{"corrupt", "scan.png", []byte("this is not an image"), apperrors.ErrorFileCorrupted},
		{"pdf without rasterizer", "arsip.pdf", []byte("%PDF-1.4"), apperrors.ErrorPDFConversion},
		{"no source", "scan.png", nil, apperrors.ErrorFileEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.processor.ProcessDocument(context.Background(), &ProcessRequest{
				JobID:      "job-bad",
				Filename:   tt.filename,
				FileBuffer: tt.data,
			})
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
			assert.True(t, stderrors.Is(err, apperrors.ErrUnsupportedInput))
			assert.False(t, apperrors.IsRetryable(err))
		})
	}
}

func TestProcessDocument_EnhanceFallsBackOnTinyImage(t *testing.T) {
	f := newFixture(t, &scriptedEngine{texts: map[int]string{4: "kecil"}}, nil, nil)

	result, err := f.processor.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-tiny",
		Filename:   "kecil.png",
		FileBuffer: pngOfWidth(t, 4, 4),
		Enhance:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "kecil", result.Text)
}

func TestProcessDocument_EnhancesBeforePreprocessedState(t *testing.T) {
	eng := &scriptedEngine{texts: map[int]string{4: "satu", 5: "dua", 6: "tiga"}}
	f := newFixture(t, eng, &pageRasterizer{widths: []int{4, 5, 6}}, nil)

	result, err := f.processor.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-enhance",
		Filename:   "arsip.pdf",
		FileBuffer: []byte("%PDF-1.4 test"),
		Enhance:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.PageCount)

	lastDegraded, preprocessed, recognizing := -1, -1, -1
	for i, entry := range f.logs.All() {
		switch entry.Message {
		case "Preprocessing degraded, using fallback":
			lastDegraded = i
		case "State transition":
			switch entry.ContextMap()["to"] {
			case StatePreprocessed.String():
				preprocessed = i
			case StateRecognizing.String():
				recognizing = i
			}
		}
	}
	require.NotEqual(t, -1, lastDegraded)
	require.NotEqual(t, -1, preprocessed)
	assert.Len(t, f.logs.FilterMessage("Preprocessing degraded").All(), 3)
	assert.Less(t, lastDegraded, preprocessed, "every page is enhanced before the preprocessed state")
	assert.Less(t, preprocessed, recognizing)
}

func TestProcessDocument_LearnsUnknownWords(t *testing.T) {
	f := newFixture(t, &scriptedEngine{texts: map[int]string{40: "qxzvbw"}}, nil, nil)
	req := &ProcessRequest{
		JobID:      "job-learn",
		Filename:   "kata.png",
		FileBuffer: pngOfWidth(t, 40, 30),
		Options:    document.Options{Learn: true},
	}

	for i := 0; i < 4; i++ {
		result, err := f.processor.ProcessDocument(context.Background(), req)
		require.NoError(t, err)
		assert.Zero(t, result.LearnedWords)
	}
	assert.NotContains(t, f.vocab.ApprovedWords(), "qxzvbw")

	result, err := f.processor.ProcessDocument(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.LearnedWords)
	assert.Contains(t, f.vocab.ApprovedWords(), "qxzvbw")
}

func TestProcessDocument_SniffsContent(t *testing.T) {
	f := newFixture(t, &scriptedEngine{texts: map[int]string{101: "isi"}}, &pageRasterizer{widths: []int{101}}, nil)

	result, err := f.processor.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-sniff",
		Filename:   "salah.png",
		FileBuffer: []byte("%PDF-1.7 renamed"),
	})
	require.NoError(t, err)
	assert.Equal(t, "--- Halaman 1 ---\nisi", result.Text)
}

func TestSniffKind(t *testing.T) {
	kind, ok := sniffKind([]byte("%PDF-1.4"))
	assert.True(t, ok)
	assert.Equal(t, document.KindPDF, kind)

	kind, ok = sniffKind([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	assert.True(t, ok)
	assert.Equal(t, document.KindImage, kind)

	_, ok = sniffKind([]byte("plain text"))
	assert.False(t, ok)
	_, ok = sniffKind([]byte("BM"))
	assert.False(t, ok)
}

func TestUpdateJobStatus(t *testing.T) {
	f := newFixture(t, &scriptedEngine{}, nil, nil)

	err := f.processor.UpdateJobStatus(context.Background(), "job-1", "failed", 100, map[string]interface{}{
		"confidence":     0.9,
		"processingTime": int64(1200),
		"engineUsed":     "scripted",
		"error_code":     "OCR_TIMEOUT",
		"message":        "Recognition of page 2 timed out",
	})
	require.NoError(t, err)

	require.Len(t, f.jobs.updates, 1)
	u := f.jobs.updates[0]
	assert.Equal(t, "failed", u.Status)
	assert.Equal(t, 100, u.Progress)
	assert.Equal(t, 0.9, u.Confidence)
	assert.Equal(t, int64(1200), u.ProcessingTimeMs)
	assert.Equal(t, "scripted", u.EngineUsed)
	assert.Equal(t, "OCR_TIMEOUT", u.ErrorCode)
	assert.Equal(t, "Recognition of page 2 timed out", u.ErrorMessage)
}
