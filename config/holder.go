package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadRecorder observes reload outcomes.
type ReloadRecorder interface {
	ConfigReloaded(err error)
}

// restartOnly lists the settings read once while composing the
// application. Edits to them are reported but take effect on restart.
var restartOnly = []struct {
	key string
	get func(*Config) string
}{
	{"server.host", func(c *Config) string { return c.Server.Host }},
	{"server.port", func(c *Config) string { return fmt.Sprint(c.Server.Port) }},
	{"storage.driver", func(c *Config) string { return c.Storage.Driver }},
	{"storage.dsn", func(c *Config) string { return c.Storage.DSN }},
	{"modules.manifests_dir", func(c *Config) string { return c.Modules.ManifestsDir }},
	{"modules.disabled", func(c *Config) string { return fmt.Sprint(c.Modules.Disabled) }},
}

// Changed returns the keys of restart-only settings that differ.
func Changed(old, updated *Config) []string {
	var keys []string
	for _, f := range restartOnly {
		if f.get(old) != f.get(updated) {
			keys = append(keys, f.key)
		}
	}
	return keys
}

// Holder keeps the current configuration of a file and reloads it on
// edits and SIGHUP. Only the log level is applied live.
type Holder struct {
	path    string
	logger  zerolog.Logger
	current atomic.Pointer[Config]

	mu        sync.Mutex
	recorder  ReloadRecorder
	listeners []func(*Config)

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path once.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(abs)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	h := &Holder{path: abs, logger: logger.With().Str("config", abs).Logger(), stop: make(chan struct{})}
	h.current.Store(cfg)
	return h, nil
}

func (h *Holder) Get() *Config { return h.current.Load() }

// Path is the absolute file path.
func (h *Holder) Path() string { return h.path }

func (h *Holder) SetRecorder(r ReloadRecorder) {
	h.mu.Lock()
	h.recorder = r
	h.mu.Unlock()
}

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Reload reads the file again. On error the previous configuration stays.
func (h *Holder) Reload() error {
	cfg, err := Load(h.path)

	h.mu.Lock()
	recorder := h.recorder
	listeners := slices.Clone(h.listeners)
	h.mu.Unlock()

	if recorder != nil {
		recorder.ConfigReloaded(err)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping previous config")
		return fmt.Errorf("reload config: %w", err)
	}

	old := h.current.Swap(cfg)
	if old.Logging.Level != cfg.Logging.Level {
		h.logger.Info().Str("old", old.Logging.Level).Str("new", cfg.Logging.Level).Msg("log level changed")
	}
	for _, key := range Changed(old, cfg) {
		h.logger.Warn().Str("field", key).Msg("config change requires restart")
	}
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Watch reloads on SIGHUP and on writes to the file until Stop. The
// directory is watched so editors that replace the file are seen too. If
// the file watch cannot be set up the error is returned and SIGHUP still
// works.
func (h *Holder) Watch() error {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if err = watcher.Add(filepath.Dir(h.path)); err != nil {
			watcher.Close()
		}
	}
	var events <-chan fsnotify.Event
	var errs <-chan error
	if err == nil {
		events, errs = watcher.Events, watcher.Errors
	} else {
		watcher = nil
		err = fmt.Errorf("watch %s: %w", h.path, err)
	}

	go h.loop(sighup, watcher, events, errs)
	return err
}

func (h *Holder) loop(sighup chan os.Signal, watcher *fsnotify.Watcher, events <-chan fsnotify.Event, errs <-chan error) {
	defer signal.Stop(sighup)
	if watcher != nil {
		defer watcher.Close()
	}

	name := filepath.Base(h.path)
	for {
		select {
		case <-h.stop:
			return
		case <-sighup:
			h.logger.Info().Msg("SIGHUP received")
			h.Reload()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().Str("op", ev.Op.String()).Msg("config file changed")
				h.Reload()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			h.logger.Error().Err(err).Msg("config watch error")
		}
	}
}

// Stop ends watching. It may be called more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}
