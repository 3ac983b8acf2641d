package generator

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settle is how long Watch waits after the last change to a directory
// before regenerating it. Editors often write a file several times per save.
const settle = 150 * time.Millisecond

// Watch generates dirs once, then again whenever a Go source file in one of
// them changes, until ctx is done. Every run is reported to report. Watch
// observes the operating system's file system, so the Generator should be
// backed by afero.NewOsFs.
func (g *Generator) Watch(ctx context.Context, dirs []string, report func([]*Result, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
		g.logger.Debug("watching", zap.String("dir", dir))
	}

	report(g.Dirs(ctx, dirs))

	pending := make(map[string]bool)
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !g.relevant(ev) {
				continue
			}
			g.logger.Debug("source changed", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			pending[filepath.Dir(ev.Name)] = true
			timer.Reset(settle)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for _, dir := range dirs {
				if pending[filepath.Clean(dir)] {
					changed = append(changed, dir)
				}
			}
			clear(pending)
			if len(changed) > 0 {
				report(g.Dirs(ctx, changed))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			g.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (g *Generator) relevant(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == g.output {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
}
