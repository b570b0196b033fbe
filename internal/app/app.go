// Package app assembles and owns the daemon: configuration, logger,
// dictionary, suggester, sync engine and keyboard hook are constructed
// here, wired together, and torn down in reverse order.
package app

import (
	"context"
	"fmt"
	"time"

	"sysinput/internal/buffer"
	"sysinput/internal/clipboard"
	"sysinput/internal/config"
	"sysinput/internal/dictionary"
	"sysinput/internal/engine"
	"sysinput/internal/field"
	"sysinput/internal/hook"
	"sysinput/internal/insertion"
	"sysinput/internal/learner"
	"sysinput/internal/logging"
	"sysinput/internal/suggest"
)

// App is the assembled daemon.
type App struct {
	cfg *config.Config
	log *logging.Logger

	dict    *dictionary.Dictionary
	freq    *dictionary.FrequencyStore
	watcher *dictionary.Watcher
	sug     *suggest.Suggester

	eng    *engine.Engine
	source hook.Source
}

// New builds the daemon from a validated configuration. Collaborators
// that cannot come up degrade rather than abort where the daemon can
// still be useful without them; only the essentials are fatal.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	log, err := logging.New(buildLogConfig(&cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	logging.SetDefault(log)

	a := &App{cfg: cfg, log: log}
	if err := a.buildDictionary(); err != nil {
		log.Close()
		return nil, err
	}

	sug, err := suggest.New(a.dict,
		suggest.WithMaxCandidates(cfg.Suggest.MaxCandidates),
		suggest.WithFuzzyThreshold(cfg.Suggest.FuzzyThreshold),
		suggest.WithMinPrefixLen(cfg.Dictionary.MinPrefixLen),
		suggest.WithCacheSize(cfg.Suggest.CacheSize),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init suggester: %w", err)
	}
	a.sug = sug

	a.eng = buildEngine(cfg, log)
	a.source = hook.New()
	return a, nil
}

func (a *App) buildDictionary() error {
	dict, err := dictionary.New(a.cfg.Dictionary.WordlistPath)
	if err != nil {
		return fmt.Errorf("load word list: %w", err)
	}
	a.dict = dict

	// Missing frequency history costs only ranking quality.
	freq, err := dictionary.OpenFrequencyStore(a.cfg.Dictionary.FrequencyDBPath)
	if err != nil {
		a.log.Warn("frequency store unavailable; ranking by word list only", "err", err)
	} else if err := dict.AttachFrequencies(freq); err != nil {
		a.log.Warn("frequency history unreadable", "err", err)
		freq.Close()
	} else {
		a.freq = freq
	}

	if a.cfg.Dictionary.WatchUserWordlist {
		w, err := dictionary.NewWatcher(a.cfg.Dictionary.UserWordlistPath, dict, func(err error) {
			a.log.Warn("user word list reload failed", "err", err)
		})
		if err != nil {
			a.log.Warn("user word list watcher unavailable", "err", err)
		} else {
			a.watcher = w
		}
	}
	if a.watcher == nil {
		words, err := dictionary.LoadUserWordlist(a.cfg.Dictionary.UserWordlistPath)
		if err != nil {
			a.log.Warn("user word list unreadable", "err", err)
		} else {
			dict.SetUserWords(words)
		}
	}
	return nil
}

func buildEngine(cfg *config.Config, log *logging.Logger) *engine.Engine {
	field.RegisterEditableClasses(cfg.Field.ExtraEditableClasses...)
	binding := field.NewBinding(cfg.Field.MaxReadBytes)

	delays := insertion.Delays{
		InterKey:    time.Duration(cfg.Insertion.InterKeyDelayMs) * time.Millisecond,
		PasteSettle: time.Duration(cfg.Insertion.PasteSettleMs) * time.Millisecond,
	}
	execs := insertion.Table(binding, clipboard.System(), insertion.NewInjector(), delays)

	verifier := engine.Verifier{
		ShortTextMax:        cfg.Verify.ShortTextMax,
		PrefixLen:           cfg.Verify.PrefixLen,
		SimilarityThreshold: cfg.Verify.SimilarityThreshold,
	}

	engCfg := engine.Config{
		Separator:     " ",
		RetryDelay:    time.Duration(cfg.Engine.RetryDelayMs) * time.Millisecond,
		RecheckDelay:  time.Duration(cfg.Engine.RecheckDelayMs) * time.Millisecond,
		DetectEvery:   cfg.Engine.DetectEvery,
		StrategyOrder: parseStrategyOrder(cfg.Engine.StrategyOrder),
	}

	buf := buffer.New(cfg.Buffer.Capacity)
	return engine.New(log.Logger, buf, binding, learner.New(), execs, verifier, engCfg)
}

// parseStrategyOrder maps validated config names to strategies.
func parseStrategyOrder(names []string) []learner.Strategy {
	var order []learner.Strategy
	for _, n := range names {
		if s, err := learner.Parse(n); err == nil {
			order = append(order, s)
		}
	}
	return order
}

func buildLogConfig(lc *config.LoggingConfig) *logging.Config {
	out := logging.DefaultConfig()
	switch lc.Level {
	case "debug":
		out.Level = logging.LevelDebug
	case "warn":
		out.Level = logging.LevelWarn
	case "error":
		out.Level = logging.LevelError
	default:
		out.Level = logging.LevelInfo
	}
	if lc.Format == "json" {
		out.Format = logging.FormatJSON
	}
	if lc.Output != "" {
		out.Output = lc.Output
	}
	if lc.FilePath != "" {
		out.FilePath = lc.FilePath
	}
	out.RedactContent = lc.RedactContent
	return out
}

// Run starts the hook and blocks until ctx is cancelled or the hook
// fails. Teardown of everything started here happens before return.
func (a *App) Run(ctx context.Context) error {
	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			a.log.Warn("user word list watcher failed to start", "err", err)
			a.watcher.Stop()
			a.watcher = nil
		}
	}

	if err := a.source.Start(ctx, a.handleKey); err != nil {
		return fmt.Errorf("install keyboard hook: %w", err)
	}
	a.log.Info("sysinput running",
		"words", a.dict.Len(),
		"frequency_store", a.freq != nil,
	)

	<-ctx.Done()

	if err := a.source.Stop(); err != nil {
		a.log.Warn("hook shutdown", "err", err)
	}
	a.log.Info("sysinput stopped")
	return nil
}

// handleKey runs on the hook thread for every key-down event. The accept
// chord is claimed here; everything else flows into the engine's model.
func (a *App) handleKey(ev hook.KeyEvent) {
	if ev.Ctrl && ev.VK == hook.VKSpace {
		a.acceptTop()
		return
	}
	a.eng.HandleKey(ev)
}

// acceptTop completes the word at the cursor with the best candidate.
func (a *App) acceptTop() {
	prefix := a.eng.CurrentWord()
	if prefix == "" {
		return
	}
	word, ok := a.sug.Best(prefix)
	if !ok {
		return
	}

	if err := a.eng.AcceptSuggestion(word); err != nil {
		a.log.Debug("suggestion not applied", "err", err)
		return
	}
	if err := a.dict.RecordUse(word); err != nil {
		a.log.Debug("usage count not persisted", "err", err)
	}
	a.sug.Invalidate()
}

// Suggestions returns the current candidates for the word at the cursor.
func (a *App) Suggestions() []suggest.Candidate {
	prefix := a.eng.CurrentWord()
	if prefix == "" {
		return nil
	}
	return a.sug.For(prefix)
}

// Engine exposes the sync engine, mainly for status reporting.
func (a *App) Engine() *engine.Engine { return a.eng }

// Dictionary exposes the word store.
func (a *App) Dictionary() *dictionary.Dictionary { return a.dict }

// Close tears the daemon down in reverse construction order. Safe to
// call after a failed or partial construction.
func (a *App) Close() error {
	var firstErr error
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.watcher = nil
	}
	if a.freq != nil {
		if err := a.freq.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.freq = nil
	}
	if a.log != nil {
		if err := a.log.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
