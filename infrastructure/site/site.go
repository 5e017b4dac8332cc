package site

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/erp"
	"gpdash/models"
)

// Lister is the GP site source. erp.GPReader satisfies it.
type Lister interface {
	Sites(ctx context.Context) ([]erp.Site, error)
}

// Catalog serves the warehouse site list with a short in-memory cache so
// every page render does not round-trip to GP.
type Catalog struct {
	lister Lister
	ttl    time.Duration

	mu        sync.Mutex
	cached    []erp.Site
	fetchedAt time.Time
}

func NewCatalog(lister Lister) *Catalog {
	return &Catalog{lister: lister, ttl: 5 * time.Minute}
}

// Sites returns the site list, hitting GP at most once per TTL window. A
// stale list is served when GP is unreachable and we have one.
func (c *Catalog) Sites(ctx context.Context) ([]erp.Site, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.cached, nil
	}
	sites, err := c.lister.Sites(ctx)
	if err != nil {
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, err
	}
	c.cached = sites
	c.fetchedAt = time.Now()
	return sites, nil
}

// Has reports whether code names a known site.
func (c *Catalog) Has(ctx context.Context, code string) (bool, error) {
	sites, err := c.Sites(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range sites {
		if s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// ResolveActive picks the site a session should browse: the session's own
// choice when still valid, then the user's default, then the first site.
// Empty string means no sites exist at all.
func ResolveActive(sites []erp.Site, sess models.Session) string {
	valid := func(code string) bool {
		for _, s := range sites {
			if s.Code == code {
				return true
			}
		}
		return false
	}
	if sess.ActiveSite != nil && valid(*sess.ActiveSite) {
		return *sess.ActiveSite
	}
	if valid(sess.User.DefaultSite) {
		return sess.User.DefaultSite
	}
	if len(sites) > 0 {
		return sites[0].Code
	}
	return ""
}

// SetActive persists the session's site choice.
func SetActive(ctx context.Context, db *appdb.DB, catalog *Catalog, sessionID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("site is required")
	}
	ok, err := catalog.Has(ctx, code)
	if err != nil {
		return fmt.Errorf("site lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("unknown site %q", code)
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
UPDATE sessions
SET active_site = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`, code, sessionID)
		return err
	})
}
