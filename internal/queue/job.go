/**
 * Job payload shared by both queue backends
 *
 * Producers written in TypeScript send fileBuffer either as a base64 string
 * or as a serialized Node.js Buffer object; both are accepted.
 */

package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/adverant/nexus/ocr-worker/internal/document"
	"github.com/adverant/nexus/ocr-worker/internal/processor"
)

// TaskTypeProcessDocument is the asynq task type for OCR jobs.
const TaskTypeProcessDocument = "process-document"

// JobPayload contains the actual job data
type JobPayload struct {
	JobID             string `json:"jobId"`
	Filename          string `json:"filename"`
	Language          string `json:"language,omitempty"`
	Engine            string `json:"engine,omitempty"`
	Enhance           bool   `json:"enhance,omitempty"`
	Correct           *bool  `json:"correct,omitempty"`
	NormalizeSpelling bool   `json:"normalizeSpelling,omitempty"`
	NormalizeCurrency bool   `json:"normalizeCurrency,omitempty"`
	FileURL           string `json:"fileUrl,omitempty"`
	FileBuffer        []byte `json:"-"` // set by UnmarshalJSON
}

// MarshalJSON writes fileBuffer as base64.
func (p JobPayload) MarshalJSON() ([]byte, error) {
	type Alias JobPayload
	aux := struct {
		Alias
		FileBuffer string `json:"fileBuffer,omitempty"`
	}{Alias: Alias(p)}
	if len(p.FileBuffer) > 0 {
		aux.FileBuffer = base64.StdEncoding.EncodeToString(p.FileBuffer)
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements custom JSON unmarshaling for JobPayload to handle Buffer serialization
// Supports both base64 string format and Node.js Buffer object format
func (p *JobPayload) UnmarshalJSON(data []byte) error {
	type Alias JobPayload
	aux := &struct {
		FileBuffer interface{} `json:"fileBuffer,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal JobPayload: %w", err)
	}

	if aux.FileBuffer == nil {
		return nil
	}

	switch v := aux.FileBuffer.(type) {
	case string:
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return fmt.Errorf("failed to decode base64 fileBuffer: %w", err)
		}
		p.FileBuffer = decoded

	case map[string]interface{}:
		bufferType, ok := v["type"].(string)
		if !ok || bufferType != "Buffer" {
			return fmt.Errorf("invalid Buffer object format (missing or incorrect 'type' field)")
		}
		dataArray, ok := v["data"].([]interface{})
		if !ok {
			return fmt.Errorf("Buffer object missing 'data' array")
		}
		p.FileBuffer = make([]byte, len(dataArray))
		for i, val := range dataArray {
			byteVal, ok := val.(float64)
			if !ok || byteVal < 0 || byteVal > 255 {
				return fmt.Errorf("invalid byte value in Buffer data array at index %d", i)
			}
			p.FileBuffer[i] = byte(byteVal)
		}

	default:
		return fmt.Errorf("fileBuffer must be either base64 string or Buffer object, got %T", v)
	}

	return nil
}

// Validate checks the fields every job must carry.
func (p *JobPayload) Validate() error {
	if p.JobID == "" {
		return fmt.Errorf("jobId is required")
	}
	if p.Filename == "" {
		return fmt.Errorf("filename is required")
	}
	if len(p.FileBuffer) == 0 && p.FileURL == "" {
		return fmt.Errorf("job %s has neither fileBuffer nor fileUrl", p.JobID)
	}
	return nil
}

// ToRequest converts the payload to a processor request. Correction,
// scoring and learning are on unless the producer turned correction off.
func (p *JobPayload) ToRequest() *processor.ProcessRequest {
	opts := document.DefaultOptions()
	if p.Correct != nil {
		opts.Correct = *p.Correct
	}
	opts.NormalizeSpelling = p.NormalizeSpelling
	opts.NormalizeCurrency = p.NormalizeCurrency

	return &processor.ProcessRequest{
		JobID:      p.JobID,
		Filename:   p.Filename,
		FileURL:    p.FileURL,
		FileBuffer: p.FileBuffer,
		Language:   p.Language,
		Engine:     p.Engine,
		Enhance:    p.Enhance,
		Options:    opts,
	}
}

// completionMetadata is what the job store records for a finished document.
func completionMetadata(result *processor.ProcessResult) map[string]interface{} {
	meta := map[string]interface{}{
		"confidence":     result.Confidence,
		"processingTime": result.ProcessingTimeMs,
		"engineUsed":     result.EngineUsed,
		"pages":          result.PageCount,
		"corrections":    result.CorrectionsCount,
	}
	if result.Quality != nil {
		meta["qualityScore"] = result.Quality.Overall
	}
	return meta
}
