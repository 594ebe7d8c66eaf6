// Package resolver composes a script's transitive library dependencies
// into a single concatenated blob, in dependency order, with no exported-
// symbol collisions.
package resolver

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// CycleError names the offending pair of libraries when expansion detects
// a dependency cycle.
type CycleError struct {
	From, To string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s -> %s", e.From, e.To)
}

// CollisionError names two libraries that both declare the same exported
// symbol.
type CollisionError struct {
	Symbol           string
	LibraryA, LibraryB string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("exported symbol %q collides between %q and %q", e.Symbol, e.LibraryA, e.LibraryB)
}

// Resolver expands requested library sets against a manifest, caching
// resolved concatenations by their sorted requested set. It is safe for
// concurrent use; resolutions may proceed concurrently.
type Resolver struct {
	manifest Manifest

	mu    sync.RWMutex
	cache *lru.Cache[string, string]
	group singleflight.Group
}

// New constructs a Resolver over manifest, caching up to cacheSize
// resolved concatenations.
func New(manifest Manifest, cacheSize int) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create resolver cache: %w", err)
	}
	return &Resolver{manifest: manifest, cache: cache}, nil
}

// Resolve returns the transitive closure of requested libraries,
// concatenated in dependency order (each library exactly once), followed
// by body.
func (r *Resolver) Resolve(requested []string, body string) (string, error) {
	key := cacheKey(requested)

	r.mu.RLock()
	if cached, ok := r.cache.Get(key); ok {
		r.mu.RUnlock()
		return cached + body, nil
	}
	r.mu.RUnlock()

	// Concurrent identical resolutions are deduplicated; the shared result
	// is then stored in the cache below.
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.expand(requested)
	})
	if err != nil {
		return "", err
	}
	prefix := v.(string)

	r.mu.Lock()
	r.cache.Add(key, prefix)
	r.mu.Unlock()

	return prefix + body, nil
}

func cacheKey(requested []string) string {
	sorted := append([]string(nil), requested...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// expand performs the depth-first topological expansion, cycle detection,
// and collision detection, returning the concatenated library text.
func (r *Resolver) expand(requested []string) (string, error) {
	var order []string
	visited := make(map[string]bool) // fully expanded
	inStack := make(map[string]bool) // on the current DFS path

	var visit func(name, via string) error
	visit = func(name, via string) error {
		if inStack[name] {
			return &CycleError{From: via, To: name}
		}
		if visited[name] {
			return nil
		}
		lib, ok := r.manifest[name]
		if !ok {
			return fmt.Errorf("unknown library %q", name)
		}
		inStack[name] = true
		for _, dep := range lib.Dependencies {
			if err := visit(dep, name); err != nil {
				return err
			}
		}
		inStack[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	sortedRequested := append([]string(nil), requested...)
	sort.Strings(sortedRequested)
	for _, name := range sortedRequested {
		if err := visit(name, ""); err != nil {
			return "", err
		}
	}

	if err := checkCollisions(r.manifest, order); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, name := range order {
		b.WriteString(r.manifest[name].Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func checkCollisions(manifest Manifest, selected []string) error {
	owner := make(map[string]string)
	for _, name := range selected {
		for _, sym := range manifest[name].Exports {
			if other, ok := owner[sym]; ok && other != name {
				return &CollisionError{Symbol: sym, LibraryA: other, LibraryB: name}
			}
			owner[sym] = name
		}
	}
	return nil
}
