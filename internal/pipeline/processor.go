package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"sealwatch/internal/config"
	"sealwatch/internal/crypt"
	"sealwatch/internal/logger"
	"sealwatch/internal/model"
	"sealwatch/internal/sink"
	"sealwatch/internal/util"
)

// Processor runs one worker goroutine per in-flight file through
// settle → read → seal → deliver → cleanup. Per-file failures are isolated to
// their worker; nothing here can take down the watch loop.
type Processor struct {
	cfg     *config.Config
	sealer  *crypt.Sealer
	sink    sink.Sink
	settler *Settler

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

func NewProcessor(cfg *config.Config, sealer *crypt.Sealer, snk sink.Sink) *Processor {
	return &Processor{
		cfg:    cfg,
		sealer: sealer,
		sink:   snk,
		settler: &Settler{
			Interval: cfg.SettleInterval,
			Window:   cfg.SettleWindow,
		},
		inflight: make(map[string]struct{}),
	}
}

// Run consumes events and emits one Result per fully attempted file. The
// returned channel closes once the input closes and every worker has
// finished; workers are never interrupted mid-stage.
func (p *Processor) Run(ctx context.Context, inCh <-chan model.FileEvent) <-chan model.Result {
	outCh := make(chan model.Result, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if !p.acquire(event.Path) {
				// A worker already owns this path: the settle wait it is in
				// keeps extending while the file changes, so the duplicate
				// event carries no extra information.
				logger.Log.Debug("path already in flight, coalescing event",
					zap.String("path", event.Path))
				continue
			}

			p.wg.Add(1)
			go func(event model.FileEvent) {
				defer p.wg.Done()
				defer p.release(event.Path)

				if result, ok := p.process(ctx, event); ok {
					outCh <- result
				}
			}(event)
		}

		p.wg.Wait()
	}()

	return outCh
}

// process runs one file's lifecycle. The bool is false when the file was
// dropped silently (vanished before settling, or shutdown).
func (p *Processor) process(ctx context.Context, event model.FileEvent) (model.Result, bool) {
	result := model.Result{Event: event}
	path := event.Path

	logger.Log.Info("new file detected",
		zap.String("path", path))

	settled, err := p.settler.Wait(ctx, path)
	if err != nil {
		return result, false
	}
	if !settled {
		logger.Log.Debug("file vanished before settling",
			zap.String("path", path))
		return result, false
	}

	plaintext, err := os.ReadFile(path)
	if err != nil {
		result.Stage = model.StageRead
		result.Err = fmt.Errorf("failed to read file: %w", err)
		logger.Log.Warn("file unreadable after settling, skipping",
			zap.String("path", path),
			zap.Error(err))
		return result, true
	}

	ciphertext, err := p.sealer.Seal(plaintext)
	if err != nil {
		result.Stage = model.StageEncrypt
		result.Err = fmt.Errorf("failed to seal file: %w", err)
		logger.Log.Error("encryption failed",
			zap.String("path", path),
			zap.String("key_id", p.sealer.KeyID()),
			zap.Error(err))
		return result, true
	}

	// Stage the sealed artifact next to the original. On delivery failure it
	// stays behind so the operator can resubmit without re-encrypting.
	staged := path + crypt.Suffix
	if err := util.AtomicWriteBytes(staged, ciphertext); err != nil {
		result.Stage = model.StageEncrypt
		result.Err = err
		logger.Log.Error("failed to stage sealed artifact",
			zap.String("path", staged),
			zap.Error(err))
		return result, true
	}

	name := filepath.Base(path) + crypt.Suffix
	location, err := p.sink.Store(ctx, name, ciphertext)
	if err != nil {
		result.Stage = model.StageDeliver
		result.Err = err
		logger.Log.Error("delivery failed, sealed artifact kept for resubmission",
			zap.String("path", path),
			zap.String("sealed", staged),
			zap.String("sink", p.sink.Name()),
			zap.Error(err))
		return result, true
	}

	result.Location = location
	logger.Log.Info("delivered",
		zap.String("path", path),
		zap.String("location", location))

	p.cleanup(path, staged)

	return result, true
}

// cleanup removes the staged ciphertext and, if configured, the original.
// Delivery already succeeded at this point, so failures here are logged and
// swallowed rather than failing the file.
func (p *Processor) cleanup(path, staged string) {
	if err := util.RemoveIfExists(staged); err != nil {
		logger.Log.Warn("failed to remove staged artifact",
			zap.String("path", staged),
			zap.Error(err))
	}

	if !p.cfg.DeleteOriginal {
		return
	}

	if err := util.RemoveIfExists(path); err != nil {
		logger.Log.Warn("failed to delete original",
			zap.String("path", path),
			zap.Error(err))
	} else {
		logger.Log.Info("deleted original",
			zap.String("path", path))
	}
}

func (p *Processor) acquire(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.inflight[path]; ok {
		return false
	}

	p.inflight[path] = struct{}{}
	return true
}

func (p *Processor) release(path string) {
	p.mu.Lock()
	delete(p.inflight, path)
	p.mu.Unlock()
}
