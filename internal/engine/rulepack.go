package engine

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/posturestack/posture-engine/internal/models"
)

// RulePackFile is the YAML root structure of a rule pack.
type RulePackFile struct {
	Rules []models.RecommendationRule `yaml:"rules"`
}

// RulePack holds a file-backed rule set, optionally hot-reloaded on change.
type RulePack struct {
	mu     sync.RWMutex
	rules  []models.RecommendationRule
	path   string
	logger *slog.Logger
	watch  *fsnotify.Watcher
}

// LoadRulePack reads a rule pack from path. A missing file yields a nil pack,
// which callers treat as "use the configured or default rules".
func LoadRulePack(path string, logger *slog.Logger) (*RulePack, error) {
	if path == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	rules, err := readRuleFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	return &RulePack{rules: rules, path: path, logger: logger}, nil
}

// Rules returns the current rule set.
func (p *RulePack) Rules() []models.RecommendationRule {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.RecommendationRule(nil), p.rules...)
}

// Watch reloads the pack whenever the underlying file changes. It returns once
// the watcher is installed; reloads happen on a background goroutine until
// Close is called. A reload that fails to parse keeps the previous rules.
func (p *RulePack) Watch() error {
	if p == nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}
	p.watch = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != p.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				rules, err := readRuleFile(p.path)
				if err != nil {
					p.logger.Warn("rule pack reload failed", slog.String("path", p.path), slog.Any("error", err))
					continue
				}
				p.mu.Lock()
				p.rules = rules
				p.mu.Unlock()
				p.logger.Info("rule pack reloaded", slog.String("path", p.path), slog.Int("rules", len(rules)))
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// Close stops the file watcher, if one was started.
func (p *RulePack) Close() error {
	if p == nil || p.watch == nil {
		return nil
	}
	return p.watch.Close()
}

func readRuleFile(path string) ([]models.RecommendationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file RulePackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.Rules, nil
}
