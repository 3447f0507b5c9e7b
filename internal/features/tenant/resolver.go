package tenant

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrNoTenant is the expected deny outcome of resolution: no tenant could be
// bound and the path is not on the public allow-list.
var ErrNoTenant = errors.New("tenant not found or inactive")

// bypassPrefixes never need tenant context: authentication, health checks,
// global administration and generic test endpoints.
var bypassPrefixes = []string{
	"/api/auth",
	"/health",
	"/api/global-admin",
	"/api/test",
}

type Resolver interface {
	// Resolve binds a request to exactly one tenant. A nil tenant with a nil
	// error means the path bypasses tenant resolution entirely.
	Resolve(ctx context.Context, host, headerRef, queryRef, path string) (*Tenant, error)
}

type ResolverImpl struct {
	Repo   TenantRepository
	Logger *zap.Logger
}

func NewResolver(repo TenantRepository, logger *zap.Logger) Resolver {
	return &ResolverImpl{Repo: repo, Logger: logger}
}

// PathBypassesTenant reports whether the path is on the public allow-list.
func PathBypassesTenant(path string) bool {
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (r *ResolverImpl) Resolve(ctx context.Context, host, headerRef, queryRef, path string) (*Tenant, error) {
	if PathBypassesTenant(path) {
		return nil, nil
	}

	hostname := stripPort(host)
	loopback := isLoopback(hostname)

	if !loopback {
		// Exact domain match first, then subdomain slug.
		t, err := r.Repo.FindByDomain(ctx, hostname)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}

		if sub, ok := subdomainOf(hostname); ok {
			t, err = r.Repo.FindBySlug(ctx, sub)
			if err != nil {
				return nil, err
			}
			if t != nil {
				return t, nil
			}
		}
	} else {
		// Development host: explicit header/query reference, then the
		// designated default tenant, then the oldest active tenant.
		ref := headerRef
		if ref == "" {
			ref = queryRef
		}
		if ref != "" {
			t, err := r.Repo.FindByRef(ctx, stripPort(ref))
			if err != nil {
				return nil, err
			}
			if t != nil {
				return t, nil
			}
		}

		t, err := r.Repo.FindDefault(ctx)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}

		t, err = r.Repo.FindOldestActive(ctx)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
	}

	r.Logger.Warn("tenant resolution failed",
		zap.String("host", host),
		zap.String("path", path),
	)
	return nil, ErrNoTenant
}

func stripPort(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}

func isLoopback(hostname string) bool {
	switch hostname {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return strings.HasSuffix(hostname, ".localhost")
}

// subdomainOf returns the first label of a multi-label hostname, skipping the
// www and api prefixes which never identify a tenant.
func subdomainOf(hostname string) (string, bool) {
	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		return "", false
	}
	sub := parts[0]
	if sub == "" || sub == "www" || sub == "api" {
		return "", false
	}
	return sub, true
}
