package session

import (
	"context"
	"database/sql"
	"go-blog-app/internal/config"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Keys stored in the session.
const (
	RoleKey   = "role"
	RoleAdmin = "admin"
)

// Manager is an interface that abstracts the session management implementation.
// This allows for easier testing and dependency injection.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
}

var _ Manager = (*scs.SessionManager)(nil)

// New creates a session manager persisting sessions in the sqlite state database.
func New(db *sql.DB, cfg config.SessionConfig) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)
	sm.Lifetime = time.Duration(cfg.Lifetime) * time.Hour
	sm.Cookie.Name = "blog_session"
	sm.Cookie.Persist = true
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.Secure
	return sm
}

// IsAdmin reports whether the session in ctx belongs to a logged-in admin.
func IsAdmin(ctx context.Context, sm Manager) bool {
	if sm == nil {
		return false
	}
	return sm.GetString(ctx, RoleKey) == RoleAdmin
}
