package spell

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchUserDictionary reloads the user dictionary whenever the file changes
// on disk, for example when another editor session adds a word. The reload
// is handed to post so that it runs on the caller's event loop; new words
// are then announced through WordAdded events. Watching stops when ctx is
// done.
func (c *Checker) WatchUserDictionary(ctx context.Context, post func(func())) error {
	path := c.opts.UserDictionary
	if path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch user dictionary: %w", err)
	}
	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch user dictionary: %w", err)
	}
	name := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					post(func() {
						if err := c.ReloadUserDictionary(); err != nil {
							c.log.Warn("reload user dictionary", "path", path, "err", err)
						}
					})
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.Warn("user dictionary watcher", "err", err)
			}
		}
	}()
	return nil
}
