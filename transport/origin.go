package transport

import (
	"net/url"
	"strings"
)

// IsCrossOrigin reports whether target points outside origin. Relative
// targets are same-origin; absolute targets are cross-origin when origin is
// unset or differs in scheme or host.
func IsCrossOrigin(origin, target string) bool {
	parsedTarget, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return false
	}
	if !parsedTarget.IsAbs() && parsedTarget.Host == "" {
		return false
	}
	parsedOrigin, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || parsedOrigin.Host == "" {
		return true
	}
	if parsedTarget.Scheme == "" {
		relative := *parsedTarget
		relative.Scheme = parsedOrigin.Scheme
		parsedTarget = &relative
	}
	if !strings.EqualFold(parsedTarget.Scheme, parsedOrigin.Scheme) {
		return true
	}
	return !strings.EqualFold(hostWithPort(parsedTarget), hostWithPort(parsedOrigin))
}

// ResolveURL resolves target against origin. Absolute targets are returned
// unchanged.
func ResolveURL(origin, target string) (string, error) {
	target = strings.TrimSpace(target)
	parsedTarget, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if parsedTarget.IsAbs() || strings.TrimSpace(origin) == "" {
		return parsedTarget.String(), nil
	}
	parsedOrigin, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return "", err
	}
	return parsedOrigin.ResolveReference(parsedTarget).String(), nil
}

func hostWithPort(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	if port == "" {
		return host
	}
	return host + ":" + port
}
