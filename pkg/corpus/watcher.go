package corpus

import (
	"context"
	"time"

	"faq-chatbot-be/internal/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry whenever a file under dirs changes. Bursts of events
// within debounce collapse into one reload. It returns once the watcher is running.
func (r *Registry) Watch(ctx context.Context, dirs []string, debounce time.Duration, log logger.ILogger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return err
		}
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				fire = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("CORPUS", "File watcher error", map[string]interface{}{"error": err.Error()})
			case <-fire:
				fire = nil
				set, err := r.Reload(ctx)
				if err != nil {
					log.Error("CORPUS", "Reload after file change failed, keeping previous corpora", map[string]interface{}{"error": err.Error()})
					continue
				}
				log.Info("CORPUS", "Corpora reloaded after file change", map[string]interface{}{"domains": set.Stats()})
			}
		}
	}()
	return nil
}
