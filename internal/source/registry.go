package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
)

// DefaultName is the source "default" resolves to.
const DefaultName = "chiasenhac_vn"

// Source is a music site that can be searched and scraped.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, max int) ([]models.SearchResult, error)
	DownloadDetails(ctx context.Context, songURL string) ([]models.DownloadLink, error)
	SongInfo(ctx context.Context, songURL string) (models.SongInfo, error)
}

// Factory builds a [Source] from options.
type Factory func(Options) (Source, error)

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register makes a source available by name. Registering a name twice panics.
func Register(name string, f Factory) {
	registry.Lock()
	defer registry.Unlock()

	if _, dup := registry.factories[name]; dup {
		panic("source: Register called twice for " + name)
	}
	registry.factories[name] = f
}

// Lookup returns the factory for name; "default" and "" resolve to [DefaultName].
func Lookup(name string) (Factory, error) {
	if name == "" || name == "default" {
		name = DefaultName
	}

	registry.RLock()
	defer registry.RUnlock()

	f, ok := registry.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: No source named %s found.", shared.ErrUnknownSource, name)
	}
	return f, nil
}

// New builds the source registered under name.
func New(name string, opts Options) (Source, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return f(opts)
}

// Default builds the [DefaultName] source.
func Default(opts Options) (Source, error) {
	return New(DefaultName, opts)
}

// Names lists registered sources in sorted order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
