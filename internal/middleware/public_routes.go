package middleware

import (
	"net/http"
	"strings"
)

// PublicRoute is one entry of the anonymous allow-list. An empty Method
// matches any method. A Pattern ending in "/**" matches the prefix and
// everything below it; other patterns match the path exactly.
type PublicRoute struct {
	Method  string
	Pattern string
}

// PublicRoutes is an allow-list checked in order.
type PublicRoutes []PublicRoute

// DefaultPublicRoutes lists every request that is served without looking
// at credentials.
var DefaultPublicRoutes = PublicRoutes{
	{Pattern: "/api/auth/**"},
	{Pattern: "/healthz"},
	{Pattern: "/metrics"},
	{Method: http.MethodGet, Pattern: "/api/programs"},
	{Method: http.MethodGet, Pattern: "/api/programs/**"},
}

// Matches reports whether the route covers method and path.
func (r PublicRoute) Matches(method, path string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	path = cleanPath(path)
	if base, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return path == r.Pattern
}

// Allows reports whether any route covers method and path.
func (rs PublicRoutes) Allows(method, path string) bool {
	for _, r := range rs {
		if r.Matches(method, path) {
			return true
		}
	}
	return false
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
