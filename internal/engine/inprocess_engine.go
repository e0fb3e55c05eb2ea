package engine

import (
	"context"
	"fmt"
	"image"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// InProcessEngine recognizes pages through libtesseract. A gosseract client
// is not reentrant, so the engine owns a pool of clients and each call takes
// one exclusively.
type InProcessEngine struct {
	clients chan *gosseract.Client
	all     []*gosseract.Client
	dpi     int
}

// NewInProcessEngine creates size clients. The model is loaded lazily by
// libtesseract on the first call of each client.
func NewInProcessEngine(size, dpi int) *InProcessEngine {
	if size < 1 {
		size = 1
	}
	e := &InProcessEngine{
		clients: make(chan *gosseract.Client, size),
		dpi:     dpi,
	}
	for i := 0; i < size; i++ {
		c := gosseract.NewClient()
		e.all = append(e.all, c)
		e.clients <- c
	}
	return e
}

func (e *InProcessEngine) Kind() Kind   { return KindInProcess }
func (e *InProcessEngine) Name() string { return "tesseract-lib" }

// CheckLibrary reports the linked libtesseract version.
func CheckLibrary() (version string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("libtesseract unavailable: %v", r)
		}
	}()
	version = gosseract.Version()
	if version == "" {
		return "", fmt.Errorf("libtesseract reported no version")
	}
	return version, nil
}

// Recognize borrows a client, runs recognition in its own goroutine and
// returns early if ctx ends. The client goes back to the pool only when the
// library call has finished.
func (e *InProcessEngine) Recognize(ctx context.Context, img image.Image, lang Language) (Recognition, error) {
	data, err := encodePNG(img)
	if err != nil {
		return Recognition{}, err
	}

	var client *gosseract.Client
	select {
	case client = <-e.clients:
	case <-ctx.Done():
		return Recognition{}, ctx.Err()
	}

	type outcome struct {
		rec Recognition
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() { e.clients <- client }()
		rec, err := e.recognize(client, data, lang)
		done <- outcome{rec: rec, err: err}
	}()

	select {
	case out := <-done:
		return out.rec, out.err
	case <-ctx.Done():
		return Recognition{}, ctx.Err()
	}
}

func (e *InProcessEngine) recognize(client *gosseract.Client, data []byte, lang Language) (rec Recognition, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("libtesseract panic: %v", r)
		}
	}()

	if err := client.SetLanguage(lang.TesseractCode()); err != nil {
		return Recognition{}, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return Recognition{}, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if e.dpi > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(e.dpi)); err != nil {
			return Recognition{}, fmt.Errorf("failed to set dpi: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return Recognition{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Recognition{}, fmt.Errorf("failed to read word confidences: %w", err)
	}

	confidences := make([]float64, 0, len(boxes))
	for _, box := range boxes {
		if box.Confidence >= 0 {
			confidences = append(confidences, box.Confidence/100)
		}
	}

	return Recognition{Text: text, Confidences: confidences}, nil
}

// Close releases every client. Callers must not use the engine afterwards.
func (e *InProcessEngine) Close() error {
	var firstErr error
	for _, c := range e.all {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
