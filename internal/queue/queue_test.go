package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/processor"
	"github.com/adverant/nexus/ocr-worker/internal/scoring"
)

type statusUpdate struct {
	status   string
	progress int
	metadata map[string]interface{}
}

type fakeProcessor struct {
	mu       sync.Mutex
	process  func(ctx context.Context, req *processor.ProcessRequest) (*processor.ProcessResult, error)
	requests []*processor.ProcessRequest
	updates  []statusUpdate
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, req *processor.ProcessRequest) (*processor.ProcessResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.process(ctx, req)
}

func (f *fakeProcessor) UpdateJobStatus(_ context.Context, _ string, status string, progress int, metadata map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusUpdate{status: status, progress: progress, metadata: metadata})
	return nil
}

func (f *fakeProcessor) lastUpdate(t *testing.T) statusUpdate {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.updates)
	return f.updates[len(f.updates)-1]
}

func TestJobPayload_Base64Buffer(t *testing.T) {
	raw := `{"jobId":"job-1","filename":"scan.png","language":"id","fileBuffer":"aGVsbG8="}`

	var p JobPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "job-1", p.JobID)
	assert.Equal(t, "scan.png", p.Filename)
	assert.Equal(t, "id", p.Language)
	assert.Equal(t, []byte("hello"), p.FileBuffer)
}

func TestJobPayload_NodeBufferObject(t *testing.T) {
	raw := `{"jobId":"job-2","filename":"scan.png","fileBuffer":{"type":"Buffer","data":[104,105]}}`

	var p JobPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, []byte("hi"), p.FileBuffer)
}

func TestJobPayload_InvalidBuffer(t *testing.T) {
	tests := map[string]string{
		"bad base64":     `{"jobId":"j","fileBuffer":"***"}`,
		"wrong type":     `{"jobId":"j","fileBuffer":{"type":"Blob","data":[1]}}`,
		"missing data":   `{"jobId":"j","fileBuffer":{"type":"Buffer"}}`,
		"byte range":     `{"jobId":"j","fileBuffer":{"type":"Buffer","data":[256]}}`,
		"unsupported":    `{"jobId":"j","fileBuffer":42}`,
		"malformed json": `{"jobId":`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			var p JobPayload
			assert.Error(t, json.Unmarshal([]byte(raw), &p))
		})
	}
}

func TestJobPayload_MarshalRoundTrip(t *testing.T) {
	in := JobPayload{JobID: "job-3", Filename: "a.pdf", Enhance: true, FileBuffer: []byte{0, 1, 2, 255}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fileBuffer":"AAEC/w=="`)

	var out JobPayload
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestJobPayload_ToRequest(t *testing.T) {
	p := JobPayload{JobID: "job-4", Filename: "a.png", Engine: "process", NormalizeCurrency: true, FileURL: "http://files/a.png"}
	req := p.ToRequest()

	assert.Equal(t, "job-4", req.JobID)
	assert.Equal(t, "process", req.Engine)
	assert.True(t, req.Options.Correct)
	assert.True(t, req.Options.Score)
	assert.True(t, req.Options.Learn)
	assert.True(t, req.Options.NormalizeCurrency)
	assert.False(t, req.Options.NormalizeSpelling)

	off := false
	p.Correct = &off
	assert.False(t, p.ToRequest().Options.Correct)
}

func TestJobPayload_Validate(t *testing.T) {
	assert.Error(t, (&JobPayload{Filename: "a.png", FileURL: "u"}).Validate())
	assert.Error(t, (&JobPayload{JobID: "j", FileURL: "u"}).Validate())
	assert.Error(t, (&JobPayload{JobID: "j", Filename: "a.png"}).Validate())
	assert.NoError(t, (&JobPayload{JobID: "j", Filename: "a.png", FileBuffer: []byte{1}}).Validate())
}

func TestRunJob_Success(t *testing.T) {
	proc := &fakeProcessor{process: func(context.Context, *processor.ProcessRequest) (*processor.ProcessResult, error) {
		return &processor.ProcessResult{
			JobID:            "job-ok",
			Confidence:       0.91,
			ProcessingTimeMs: 1500,
			EngineUsed:       "tesseract",
			PageCount:        2,
			Quality:          &scoring.Result{Overall: 88},
		}, nil
	}}
	payload := &JobPayload{JobID: "job-ok", Filename: "a.png", FileBuffer: []byte{1}}

	result, err := runJob(context.Background(), proc, logging.NewTestLogger().Logger, payload, time.Second)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, proc.updates, 2)
	assert.Equal(t, "processing", proc.updates[0].status)
	done := proc.lastUpdate(t)
	assert.Equal(t, "completed", done.status)
	assert.Equal(t, 100, done.progress)
	assert.Equal(t, 0.91, done.metadata["confidence"])
	assert.Equal(t, int64(1500), done.metadata["processingTime"])
	assert.Equal(t, 88, done.metadata["qualityScore"])
}

func TestRunJob_FailureRecordsCode(t *testing.T) {
	proc := &fakeProcessor{process: func(_ context.Context, req *processor.ProcessRequest) (*processor.ProcessResult, error) {
		return nil, apperrors.NewRecognitionTimeoutError(req.JobID, 1, 50*time.Millisecond, context.DeadlineExceeded)
	}}
	payload := &JobPayload{JobID: "job-slow", Filename: "a.pdf", FileBuffer: []byte{1}}

	_, err := runJob(context.Background(), proc, logging.NewTestLogger().Logger, payload, time.Second)
	require.Error(t, err)

	failed := proc.lastUpdate(t)
	assert.Equal(t, "failed", failed.status)
	assert.Equal(t, string(apperrors.ErrorRecognitionTimeout), failed.metadata["error_code"])
}

func TestRunJob_JobTimeout(t *testing.T) {
	proc := &fakeProcessor{process: func(ctx context.Context, _ *processor.ProcessRequest) (*processor.ProcessResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	payload := &JobPayload{JobID: "job-hang", Filename: "a.png", FileBuffer: []byte{1}}

	_, err := runJob(context.Background(), proc, logging.NewTestLogger().Logger, payload, 30*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorProcessingTimeout, apperrors.CodeOf(err))
	assert.Equal(t, string(apperrors.ErrorProcessingTimeout), proc.lastUpdate(t).metadata["error_code"])
}

func TestHandleProcessDocument_SkipsRetryForBadInput(t *testing.T) {
	proc := &fakeProcessor{process: func(_ context.Context, req *processor.ProcessRequest) (*processor.ProcessResult, error) {
		return nil, apperrors.NewUnsupportedInputError(req.JobID, apperrors.ErrorFileCorrupted, "image could not be decoded", nil)
	}}
	c := &Consumer{processor: proc, config: &ConsumerConfig{QueueName: "ocr:jobs"}, logger: logging.NewTestLogger().Logger}

	data, err := json.Marshal(&JobPayload{JobID: "job-bad", Filename: "a.png", FileBuffer: []byte("nope")})
	require.NoError(t, err)

	err = c.handleProcessDocument(context.Background(), asynq.NewTask(TaskTypeProcessDocument, data))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedInput))

	err = c.handleProcessDocument(context.Background(), asynq.NewTask(TaskTypeProcessDocument, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleProcessDocument_RetriesEngineFailure(t *testing.T) {
	proc := &fakeProcessor{process: func(_ context.Context, req *processor.ProcessRequest) (*processor.ProcessResult, error) {
		return nil, apperrors.NewRecognitionFailedError(req.JobID, 0, errors.New("tesseract crashed"))
	}}
	c := &Consumer{processor: proc, config: &ConsumerConfig{QueueName: "ocr:jobs"}, logger: logging.NewTestLogger().Logger}

	data, err := json.Marshal(&JobPayload{JobID: "job-retry", Filename: "a.png", FileBuffer: []byte{1}})
	require.NoError(t, err)

	err = c.handleProcessDocument(context.Background(), asynq.NewTask(TaskTypeProcessDocument, data))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestRedisJobData_ShouldRetry(t *testing.T) {
	retryable := apperrors.NewRecognitionFailedError("j", 0, errors.New("boom"))
	corrupt := apperrors.NewUnsupportedInputError("j", apperrors.ErrorFileCorrupted, "bad", nil)

	job := &RedisJobData{Attempts: 1, MaxRetries: 3}
	assert.True(t, job.shouldRetry(retryable))
	assert.False(t, job.shouldRetry(corrupt))

	job.Attempts = 3
	assert.False(t, job.shouldRetry(retryable))
}

func TestRedisJobData_DecodesLegacyEnvelope(t *testing.T) {
	raw := `{"id":"q-1","type":"process-document","attempts":0,"maxRetries":3,
		"payload":{"jobId":"job-9","filename":"ktp.jpg","fileBuffer":{"type":"Buffer","data":[255,216,255]}}}`

	var job RedisJobData
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, "q-1", job.ID)
	assert.Equal(t, "job-9", job.Payload.JobID)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, job.Payload.FileBuffer)
}

func TestStatusEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, map[string]interface{}{
		"event":     "job:completed",
		"jobId":     "job-1",
		"timestamp": "2024-03-01T08:00:00Z",
	}, statusEvent("job-1", "completed", at))
}
