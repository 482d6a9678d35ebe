package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "re-check a module whenever it changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return errors.Wrap(err, "failed to start the file watcher")
			}
			defer watcher.Close()
			// watch the directory: editors often replace the file,
			// which drops a watch on the file itself
			if err := watcher.Add(filepath.Dir(filePath)); err != nil {
				return errors.Wrapf(err, "failed to watch `%s`", filePath)
			}

			log := newLog(cmd)
			check := func() {
				log.Reset()
				loadModule(log, filePath)
				if !log.HasErrors() {
					log.Trace("%s: ok", filePath)
				}
			}
			check()

			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(ev.Name) != filepath.Clean(filePath) {
						continue
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
						check()
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Err(err)
				}
			}
		},
	}
}
