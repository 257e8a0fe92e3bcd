package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const (
	// burstDelay batches the events of one save (editors often write, then
	// chmod, then write again) into a single rerun.
	burstDelay = 32 * time.Millisecond

	// pollInterval re-checks the file in case an event was missed, e.g.
	// after an editor replaced it by rename.
	pollInterval = 2 * time.Second
)

// follower reruns a command whenever its input file changes.
type follower struct {
	path   string
	fw     *fsnotify.Watcher
	logger *log.Logger

	lastModified time.Time
}

// newFollower starts watching path. Events that arrive before run is
// called are not lost.
func newFollower(path string, logger *log.Logger) (*follower, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	f := &follower{path: path, fw: fw, logger: logger}
	if f.lastModified, err = f.addWatch(); err != nil {
		fw.Close()
		return nil, err
	}
	return f, nil
}

func (f *follower) Close() error {
	return f.fw.Close()
}

// run calls fn after every change until ctx ends. A failing fn is reported
// and the watch goes on.
func (f *follower) run(ctx context.Context, fn func(context.Context) error) error {
	burst := time.NewTimer(time.Hour)
	burst.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	for {
		select {
		case <-poll.C:
			mt, err := f.addWatch()
			if err != nil {
				f.logger.Debug("input not watchable yet", "path", f.path, "error", err)
				continue
			}
			if !mt.Equal(f.lastModified) {
				f.lastModified = mt
				burst.Reset(burstDelay)
			}
		case ev, ok := <-f.fw.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			f.logger.Debug("file event", "op", ev.Op.String(), "path", ev.Name)
			mt, err := f.addWatch()
			if err != nil {
				// Removed or mid-rename; the poll picks it up again.
				continue
			}
			if ev.Op == fsnotify.Chmod && mt.Equal(f.lastModified) {
				continue
			}
			f.lastModified = mt
			burst.Reset(burstDelay)
		case <-burst.C:
			printInfo("Detected change in %s", f.path)
			if err := fn(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				printError("%v", err)
			}
		case err, ok := <-f.fw.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			f.logger.Warn("file watcher error", "error", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// addWatch (re-)adds the watch and returns the file's modification time.
// Adding an existing watch is a no-op.
func (f *follower) addWatch() (time.Time, error) {
	if err := f.fw.Add(f.path); err != nil {
		return time.Time{}, err
	}
	fi, err := os.Stat(f.path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// followInput runs fn once, then again after every change to path.
func (c *CLI) followInput(ctx context.Context, path string, fn func(context.Context) error) error {
	f, err := newFollower(path, c.Logger)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		printError("%v", err)
	}
	printNewline()
	printInfo("Watching %s for changes (ctrl+c to stop)", path)
	return f.run(ctx, fn)
}
