package ports

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type DomainSuffixes struct {
	suffixes  []string
	allowHTTP bool
}

// NewDomainSuffixes allows https origins on the given domains and their subdomains.
// With allowHTTP, plain http origins are allowed as well (local development).
func NewDomainSuffixes(allowHTTP bool, suffixes ...string) (*DomainSuffixes, error) {
	for _, suffix := range suffixes {
		if suffix == "" {
			return nil, fmt.Errorf("domain suffix should not be empty")
		}
		if strings.HasPrefix(suffix, ".") {
			return nil, fmt.Errorf("domain suffix %s should not start with a dot", suffix)
		}
		if strings.Contains(suffix, "://") {
			return nil, fmt.Errorf("domain suffix %s should not contain a scheme", suffix)
		}
	}
	return &DomainSuffixes{
		suffixes:  suffixes,
		allowHTTP: allowHTTP,
	}, nil
}

func (suffixes *DomainSuffixes) AnyMatch(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !suffixes.allowHTTP {
			return false
		}
	default:
		return false
	}

	// Origins carry no path, query or credentials
	if parsed.User != nil || (parsed.Path != "" && parsed.Path != "/") || parsed.RawQuery != "" {
		return false
	}

	hostname := strings.ToLower(parsed.Hostname())
	for _, suffix := range suffixes.suffixes {
		if hostnameMatchesSuffix(hostname, suffix) {
			return true
		}
	}
	return false
}

func hostnameMatchesSuffix(hostname string, suffix string) bool {
	suffix = strings.ToLower(suffix)
	// Literal match of the suffix (example.com), or any subdomain (*.example.com)
	return hostname == suffix || strings.HasSuffix(hostname, "."+suffix)
}

func BuildCORSMiddleware(allowedSuffixes *DomainSuffixes) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if allowedSuffixes.AnyMatch(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")

				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
					w.Header().Set("Access-Control-Max-Age", "3600")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next(w, r)
		}
	}
}

func BuildCORSHandler(allowedSuffixes *DomainSuffixes) http.HandlerFunc {
	return BuildCORSMiddleware(allowedSuffixes)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
