package postprocess

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// waitForSettle blocks until path has gone quiet (no Write/Chmod/Create
// event naming it) for cfg.SettleQuiet, or cfg.SettleTimeout elapses, whichever
// comes first. A P2P client can still be flushing the final bytes of a
// "completed" download when the engine hands it off; this guards against
// post-processing a file mid-write.
func (p *Processor) waitForSettle(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	deadline := time.NewTimer(p.cfg.SettleTimeout)
	defer deadline.Stop()
	quiet := time.NewTimer(p.cfg.SettleQuiet)
	defer quiet.Stop()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Chmod|fsnotify.Create) == 0 {
				continue
			}
			if !quiet.Stop() {
				<-quiet.C
			}
			quiet.Reset(p.cfg.SettleQuiet)
		case <-quiet.C:
			return nil
		case <-deadline.C:
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
