package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves required role for the request. Uplift figures and
// commission rules are manager only on writes.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case strings.HasSuffix(path, "/uplift") && method != http.MethodGet:
		return RoleManager, true
	case strings.HasPrefix(path, "/api/v1/commission-rules"):
		if method == http.MethodGet {
			return RoleBroker, true
		}
		return RoleManager, true
	case strings.HasPrefix(path, "/api/v1/tenders"):
		if method == http.MethodGet {
			return RoleViewer, true
		}
		return RoleBroker, true
	case strings.HasPrefix(path, "/api/v1/contracts") && strings.Contains(path, "/ledger"):
		if method == http.MethodGet {
			return RoleBroker, true
		}
		return RoleManager, true
	case strings.HasPrefix(path, "/api/v1/contracts"):
		if method == http.MethodGet {
			return RoleViewer, true
		}
		return RoleBroker, true
	case strings.HasPrefix(path, "/api/v1/loas"):
		if method == http.MethodGet {
			return RoleViewer, true
		}
		return RoleBroker, true
	case strings.HasPrefix(path, "/api/v1/exports/"):
		return RoleBroker, true
	}

	if strings.HasPrefix(path, "/api/") {
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return RoleViewer, true
		}
		return RoleBroker, true
	}
	return "", false
}
