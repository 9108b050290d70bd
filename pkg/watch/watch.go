// Package watch regenerates the macro file whenever the profile it was
// generated from changes on disk.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
	"github.com/Kanrog/kanrog.github.io/pkg/log"
	"github.com/Kanrog/kanrog.github.io/pkg/macro"
	"github.com/Kanrog/kanrog.github.io/pkg/metrics"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

// DefaultDebounce collapses the burst of events one editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Profile  string
	Output   string
	Backup   bool
	Debounce time.Duration

	// Override is applied to every freshly loaded profile, so command line
	// flags keep winning over the file.
	Override func(*profile.Profile)

	// OnUpdate, when set, receives the outcome of every regeneration.
	OnUpdate func(Update)

	Metrics *metrics.GeneratorMetrics
}

// Update is the outcome of one regeneration.
type Update struct {
	Time       time.Time
	Written    bool
	BackupPath string
	Result     resolve.Result
	Err        error
}

// Watcher watches one profile file.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher
	logger  *log.Logger
	target  string
}

// New creates a watcher. The profile's directory is watched rather than the
// file so editors that save by rename are still seen.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.GlobalMetrics()
	}
	target, err := filepath.Abs(opts.Profile)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRuntime, "resolve profile path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRuntime, "create file watcher")
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		fw.Close()
		return nil, errors.Wrap(err, errors.ErrRuntime, "watch profile directory")
	}

	return &Watcher{
		opts:    opts,
		watcher: fw,
		logger:  log.GetLogger("watch"),
		target:  target,
	}, nil
}

// Run generates once, then again after every change to the profile, until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.logger.WithFields(log.Fields{"profile": w.opts.Profile, "output": w.opts.Output}).Info("watching")
	w.Regenerate()

	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.WithField("op", event.Op.String()).Debug("profile changed")
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watch error")

		case <-timer.C:
			w.Regenerate()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	return err == nil && name == w.target
}

// Regenerate loads, validates and writes once. The output file is left
// untouched when the profile cannot be loaded or is blocked.
func (w *Watcher) Regenerate() Update {
	u := w.regenerate()
	w.opts.Metrics.RecordReload(u.Err == nil)
	if w.opts.OnUpdate != nil {
		w.opts.OnUpdate(u)
	}
	return u
}

func (w *Watcher) regenerate() Update {
	u := Update{Time: time.Now()}

	p, err := profile.Load(w.opts.Profile)
	if err != nil {
		u.Err = err
		w.logger.WithError(err).Error("profile not loaded")
		return u
	}
	if w.opts.Override != nil {
		w.opts.Override(&p)
	}

	doc, res, err := macro.Generate(p)
	u.Result = res
	for _, v := range res.Violations {
		entry := w.logger.WithFields(log.Fields{"code": v.Code, "field": v.Field})
		if v.Severity == resolve.Blocking {
			entry.Error(v.Message)
		} else {
			entry.Warn(v.Message)
		}
		w.opts.Metrics.RecordViolation(v.Code, v.Severity == resolve.Blocking)
	}
	if err != nil {
		u.Err = err
		return u
	}

	backupPath, err := macro.WriteFile(w.opts.Output, doc, w.opts.Backup)
	if err != nil {
		u.Err = err
		w.logger.WithError(err).Error("write failed")
		return u
	}
	u.Written = true
	u.BackupPath = backupPath
	w.opts.Metrics.FilesWritten.Inc(nil)
	w.opts.Metrics.RecordDocument(p.Archetype.String(), len(doc.String()))

	entry := w.logger.WithField("output", w.opts.Output)
	if backupPath != "" {
		entry = entry.WithField("backup", backupPath)
	}
	entry.Info("macros written")
	return u
}
