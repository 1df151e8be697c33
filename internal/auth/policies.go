package auth

import (
	"fmt"
	"go-blog-app/internal/logger"

	"github.com/casbin/casbin/v2"
)

// DefaultPolicies are the route permissions of the service. Readers only need
// the anonymous set; every mutation is admin-only.
var DefaultPolicies = [][]string{
	{SubjectAnonymous, "/api/login", "POST"},
	{SubjectAnonymous, "/api/logout", "POST"},
	{SubjectAnonymous, "/api/articles", "GET"},
	{SubjectAnonymous, "/api/articles/:id", "GET"},
	{SubjectAnonymous, "/api/articles/:id/files", "GET"},
	{SubjectAnonymous, "/files/:id/:filename", "GET"},
	{SubjectAnonymous, "/robots.txt", "GET"},
	{SubjectAnonymous, "/sitemap.xml", "GET"},

	{SubjectAdmin, "/api/articles", "POST"},
	{SubjectAdmin, "/api/articles/:id", "PUT"},
	{SubjectAdmin, "/api/articles/:id", "DELETE"},
	{SubjectAdmin, "/api/articles/:id/status", "PATCH"},
	{SubjectAdmin, "/api/articles/:id/metadata", "PUT"},
	{SubjectAdmin, "/api/articles/:id/files", "POST"},
	{SubjectAdmin, "/api/articles/:id/files/:filename", "DELETE"},
	{SubjectAdmin, "/api/articles/:id/files/:filename/url", "GET"},
}

// SeedDefaultPolicies ensures the enforcer carries DefaultPolicies and that
// admin inherits every anonymous permission. It is idempotent.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) error {
	log.Info("Seeding default authorization policies...")
	for _, p := range DefaultPolicies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", p, err)
			}
		}
	}

	if has, _ := e.HasRoleForUser(SubjectAdmin, SubjectAnonymous); !has {
		if _, err := e.AddRoleForUser(SubjectAdmin, SubjectAnonymous); err != nil {
			return fmt.Errorf("failed to add role '%s' -> '%s': %w", SubjectAdmin, SubjectAnonymous, err)
		}
	}
	log.Info("Policy seeding complete.")
	return nil
}
