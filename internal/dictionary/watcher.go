package dictionary

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ppiankov/ieml/internal/worker"
)

// Watcher rebuilds the dictionary whenever its YAML source changes and
// publishes every successful build to a registry. Rebuilds are throttled;
// failed builds are logged and the current version stays published.
type Watcher struct {
	path     string
	registry *Registry
	limiter  *worker.Limiter
	logger   *zap.SugaredLogger
	now      func() time.Time

	// OnPublish, when set, is called after each published version.
	OnPublish func(*Version)
}

// NewWatcher watches path. rebuildsPerSecond bounds the rebuild rate.
func NewWatcher(path string, registry *Registry, rebuildsPerSecond float64, logger *zap.SugaredLogger) *Watcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		registry: registry,
		limiter:  worker.NewLimiter(rebuildsPerSecond, 1),
		logger:   logger.Named("watcher"),
		now:      time.Now,
	}
}

// Rebuild loads the source, builds a version and publishes it.
func (w *Watcher) Rebuild(ctx context.Context) (*Version, error) {
	if err := w.limiter.Wait(ctx, w.path); err != nil {
		return nil, err
	}
	src, err := LoadSource(w.path)
	if err != nil {
		return nil, err
	}

	date := w.now().UTC().Truncate(time.Second)
	if cur := w.registry.Current(); cur != nil && !date.After(cur.Date) {
		date = cur.Date.Add(time.Second)
	}
	v, err := NewVersionFromSource(ctx, date, src, w.logger)
	if err != nil {
		return nil, err
	}
	if err := w.registry.Publish(v); err != nil {
		return nil, err
	}
	if w.OnPublish != nil {
		w.OnPublish(v)
	}
	return v, nil
}

// Run builds once, then rebuilds on every write to the source until ctx is
// done. The directory is watched so editors that replace the file are
// followed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "watch %s", w.path)
	}

	if _, err := w.Rebuild(ctx); err != nil {
		w.logger.Warnw("initial build failed", "path", w.path, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			w.logger.Debugw("source changed", "path", ev.Name, "op", ev.Op.String())
			if _, err := w.Rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Warnw("rebuild failed", "path", w.path, "error", err)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watch error", "error", err)
		}
	}
}
