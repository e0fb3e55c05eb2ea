package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adverant/nexus/ocr-worker/internal/document"
	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

// PageTask recognizes one page.
type PageTask func(ctx context.Context, page document.Page) (PageResult, error)

// PrepareFunc transforms one page before recognition.
type PrepareFunc func(i int, page document.Page) document.Page

// PageScheduler runs page work either sequentially or on a bounded pool and
// returns the results indexed by page.
type PageScheduler struct {
	Workers     int
	Parallel    bool
	PageTimeout time.Duration
	Logger      *logging.Logger
}

func (s *PageScheduler) logger() *logging.Logger {
	if s.Logger == nil {
		return logging.NewLogger("scheduler")
	}
	return s.Logger
}

// poolSize is the number of pages handled at once for n pages.
func (s *PageScheduler) poolSize(n int) int {
	if !s.Parallel || s.Workers <= 1 || n <= 1 {
		return 1
	}
	if s.Workers > n {
		return n
	}
	return s.Workers
}

// Prepare applies fn to every page on the same pool Run uses and returns
// the prepared pages in order. It stops early only when ctx is cancelled.
func (s *PageScheduler) Prepare(ctx context.Context, pages []document.Page, fn PrepareFunc) ([]document.Page, error) {
	out := make([]document.Page, len(pages))
	size := s.poolSize(len(pages))

	if size == 1 {
		for i, page := range pages {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = fn(i, page)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)
	for i, page := range pages {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = fn(i, page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Run executes task for every page. The first failing page aborts the
// document: no further pages start and only the error is returned.
func (s *PageScheduler) Run(ctx context.Context, jobID string, pages []document.Page, task PageTask) ([]PageResult, error) {
	results := make([]PageResult, len(pages))
	if len(pages) == 0 {
		return results, nil
	}

	log := s.logger()
	workers := s.poolSize(len(pages))

	if workers == 1 {
		for i, page := range pages {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := s.runPage(ctx, log, jobID, page, task)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	log.Debug("Recognizing pages in parallel", "jobId", jobID, "pages", len(pages), "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, page := range pages {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A slot freed by a failing page must not start another one.
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.runPage(gctx, log, jobID, page, task)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

type pageOutcome struct {
	result PageResult
	err    error
}

// runPage bounds one task by the page timeout. A task that ignores its
// context is abandoned when the deadline passes; its result is discarded.
func (s *PageScheduler) runPage(ctx context.Context, log *logging.Logger, jobID string, page document.Page, task PageTask) (PageResult, error) {
	pctx := ctx
	cancel := func() {}
	if s.PageTimeout > 0 {
		pctx, cancel = context.WithTimeout(ctx, s.PageTimeout)
	}
	defer cancel()

	start := time.Now()
	done := make(chan pageOutcome, 1)
	go func() {
		r, err := task(pctx, page)
		done <- pageOutcome{result: r, err: err}
	}()

	var out pageOutcome
	select {
	case out = <-done:
	case <-pctx.Done():
		out = pageOutcome{err: pctx.Err()}
	}

	if out.err == nil {
		out.result.Index = page.Index
		if out.result.Duration == 0 {
			out.result.Duration = time.Since(start)
		}
		return out.result, nil
	}

	if ctx.Err() != nil {
		return PageResult{}, ctx.Err()
	}
	if pctx.Err() == context.DeadlineExceeded {
		log.Warn("Page recognition timed out", "jobId", jobID, "page", page.Index+1, "timeout", s.PageTimeout.String())
		return PageResult{}, apperrors.NewRecognitionTimeoutError(jobID, page.Index, s.PageTimeout, out.err)
	}
	if code := apperrors.CodeOf(out.err); code != apperrors.ErrorInternal {
		return PageResult{}, out.err
	}
	log.Warn("Page recognition failed", "jobId", jobID, "page", page.Index+1, "error", out.err)
	return PageResult{}, apperrors.NewRecognitionFailedError(jobID, page.Index, out.err)
}

// PageMarker is the heading placed before each page of a paginated document.
func PageMarker(index int) string {
	return fmt.Sprintf("--- Halaman %d ---", index+1)
}

// Assemble rebuilds the document in page order. Pages without text are
// skipped; confidences of every page are concatenated in index order.
func Assemble(results []PageResult, paginated bool) Assembled {
	blocks := make([]string, 0, len(results))
	var confidences []float64
	for _, r := range results {
		confidences = append(confidences, r.Confidences...)
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		if paginated {
			text = PageMarker(r.Index) + "\n" + text
		}
		blocks = append(blocks, text)
	}
	return Assembled{
		Text:        strings.Join(blocks, "\n\n"),
		Confidences: confidences,
		Pages:       len(results),
	}
}
