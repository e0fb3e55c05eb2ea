package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

// RegistryConfig selects binaries and sizing for the engines.
type RegistryConfig struct {
	TesseractPath string
	TempDir       string
	DPI           int
	PoolSize      int
	CheckTimeout  time.Duration
}

// Registry holds the engines that were found usable at startup.
type Registry struct {
	mu        sync.Mutex
	available map[Kind]Engine
	preferred Kind
	closers   []func() error
}

// NewRegistry checks both variants once. One missing variant is logged; if
// neither is usable the error is EngineUnavailable.
func NewRegistry(ctx context.Context, cfg RegistryConfig, logger *logging.Logger) (*Registry, error) {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 10 * time.Second
	}

	r := &Registry{available: make(map[Kind]Engine)}
	r.mu.Lock()
	defer r.mu.Unlock()

	failures := map[string]interface{}{}

	if version, err := CheckLibrary(); err != nil {
		logger.Warn("In-process engine unavailable", "error", err)
		failures["inprocess"] = err.Error()
	} else {
		eng := NewInProcessEngine(cfg.PoolSize, cfg.DPI)
		r.available[KindInProcess] = eng
		r.closers = append(r.closers, eng.Close)
		logger.Info("In-process engine ready", "version", version, "pool_size", cfg.PoolSize)
	}

	checkCtx, cancel := context.WithTimeout(ctx, cfg.CheckTimeout)
	defer cancel()

	proc := NewProcessEngine(cfg.TesseractPath, cfg.TempDir, cfg.DPI)
	if version, err := proc.Check(checkCtx); err != nil {
		logger.Warn("Process engine unavailable", "path", cfg.TesseractPath, "error", err)
		failures["process"] = err.Error()
	} else {
		r.available[KindProcess] = proc
		logger.Info("Process engine ready", "path", cfg.TesseractPath, "version", version)
	}

	if len(r.available) == 0 {
		return nil, apperrors.NewEngineUnavailableError(failures, fmt.Errorf("no recognition engine available"))
	}

	r.preferred = KindInProcess
	if _, ok := r.available[KindInProcess]; !ok {
		r.preferred = KindProcess
	}
	return r, nil
}

// NewStaticRegistry wraps already constructed engines; the first one is preferred.
func NewStaticRegistry(engines ...Engine) (*Registry, error) {
	if len(engines) == 0 {
		return nil, apperrors.NewEngineUnavailableError(nil, fmt.Errorf("no recognition engine available"))
	}
	r := &Registry{available: make(map[Kind]Engine), preferred: engines[0].Kind()}
	for _, e := range engines {
		r.available[e.Kind()] = e
	}
	return r, nil
}

// Resolve returns the engine for kind. KindAuto maps to the preferred engine;
// an explicitly requested but unavailable variant falls back to it as well.
func (r *Registry) Resolve(kind Kind) Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind != KindAuto {
		if e, ok := r.available[kind]; ok {
			return e
		}
	}
	return r.available[r.preferred]
}

// Available lists the usable engine kinds.
func (r *Registry) Available() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []Kind
	for _, k := range []Kind{KindInProcess, KindProcess} {
		if _, ok := r.available[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Close releases engine resources.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, c := range r.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
