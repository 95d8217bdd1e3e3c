// Package fs loads the open blueprints from a local directory of JSON
// schema files, one file per domain.
package fs

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fwojciec/structura"
)

// Ensure Library implements structura.BlueprintLibrary at compile time.
var _ structura.BlueprintLibrary = (*Library)(nil)

// Library holds the open blueprints. It is loaded once at process start and
// immutable afterwards, so lookups need no locking.
type Library struct {
	blueprints map[string]*structura.Blueprint
}

// LoadLibrary reads every *.json file under dir, registering each as the
// open blueprint for the domain named by the file (e.g. "e-commerce.json"
// serves domain "e-commerce"). Files that do not parse are skipped with a
// log line rather than failing startup. A missing directory yields an empty
// library, leaving only protected blueprints resolvable.
func LoadLibrary(dir string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lib := &Library{blueprints: make(map[string]*structura.Blueprint)}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Warn("blueprints directory not found", "dir", dir)
		return lib, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		domain := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Error("failed to read blueprint file", "file", entry.Name(), "error", err)
			continue
		}
		if !json.Valid(raw) {
			logger.Error("skipping malformed blueprint file", "file", entry.Name())
			continue
		}

		lib.register(domain, raw)
	}

	logger.Info("open blueprints loaded", "dir", dir, "domains", len(lib.blueprints))
	return lib, nil
}

// register stores a blueprint and its spelling aliases.
func (l *Library) register(domain string, schema json.RawMessage) {
	l.blueprints[domain] = &structura.Blueprint{
		Domain:     domain,
		Visibility: structura.VisibilityOpen,
		Schema:     schema,
	}

	// Common spelling aliases so "ecommerce" and "e-commerce" both resolve.
	switch domain {
	case "e-commerce":
		l.alias("ecommerce", domain)
	case "ecommerce":
		l.alias("e-commerce", domain)
	}
}

func (l *Library) alias(alias, domain string) {
	if _, taken := l.blueprints[alias]; taken {
		return
	}
	bp := *l.blueprints[domain]
	bp.Domain = alias
	l.blueprints[alias] = &bp
}

// OpenBlueprint returns the open blueprint registered for a domain.
func (l *Library) OpenBlueprint(domain string) (*structura.Blueprint, bool) {
	bp, ok := l.blueprints[domain]
	return bp, ok
}

// Domains lists the registered open-blueprint domains, sorted.
func (l *Library) Domains() []string {
	domains := make([]string, 0, len(l.blueprints))
	for d := range l.blueprints {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
