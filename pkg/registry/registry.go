// Package registry resolves tenant slugs to their MCP resource records.
package registry

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/lazaroMB/mcp-to-api/pkg/models"
)

// ErrNotFound is returned when no resource matches the given slug
var ErrNotFound = errors.New("mcp not found")

// Registry looks up MCP resources by slug. Lookups go through a short-lived
// in-memory cache since discovery endpoints hit the same slugs repeatedly.
type Registry struct {
	db    *gorm.DB
	cache *gocache.Cache
}

// NewRegistry creates a registry with the given cache TTL
func NewRegistry(db *gorm.DB, cacheTTL time.Duration) *Registry {
	return &Registry{
		db:    db,
		cache: gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Resolve returns the resource for a slug regardless of its enablement flag.
// Callers that serve traffic must use ResolveEnabled instead.
func (r *Registry) Resolve(slug string) (*models.MCP, error) {
	if cached, ok := r.cache.Get(slug); ok {
		mcp := cached.(models.MCP)
		return &mcp, nil
	}

	var mcp models.MCP
	if err := r.db.Where("slug = ?", slug).First(&mcp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to resolve mcp %q", slug)
	}

	r.cache.SetDefault(slug, mcp)
	return &mcp, nil
}

// ResolveEnabled returns the resource for a slug, treating disabled
// resources as not found. Every gateway and token-issuance path goes
// through this.
func (r *Registry) ResolveEnabled(slug string) (*models.MCP, error) {
	mcp, err := r.Resolve(slug)
	if err != nil {
		return nil, err
	}
	if !mcp.Enabled {
		return nil, ErrNotFound
	}
	return mcp, nil
}

// Invalidate drops a cached slug, for use after resource mutation
func (r *Registry) Invalidate(slug string) {
	r.cache.Delete(slug)
}
