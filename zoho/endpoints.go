// ABOUTME: Zoho service names and data-center specific base URLs
// ABOUTME: Resolves crm, books, analytics, and OAuth endpoints from the domain suffix
package zoho

import (
	"fmt"
	"strings"
)

// Service names a Zoho product API.
type Service string

const (
	ServiceCRM       Service = "crm"
	ServiceBooks     Service = "books"
	ServiceAnalytics Service = "analytics"
)

// Endpoints holds the token URL and per-service base URLs.
type Endpoints struct {
	TokenURL string
	Base     map[Service]string
}

// DefaultEndpoints builds the public Zoho URLs for a data-center domain
// suffix such as "com", "eu", or "in".
func DefaultEndpoints(domain string) Endpoints {
	domain = strings.TrimPrefix(domain, ".")
	if domain == "" {
		domain = "com"
	}
	return Endpoints{
		TokenURL: fmt.Sprintf("https://accounts.zoho.%s/oauth/v2/token", domain),
		Base: map[Service]string{
			ServiceCRM:       fmt.Sprintf("https://www.zohoapis.%s/crm/v6", domain),
			ServiceBooks:     fmt.Sprintf("https://www.zohoapis.%s/books/v3", domain),
			ServiceAnalytics: fmt.Sprintf("https://analyticsapi.zoho.%s/restapi/v2", domain),
		},
	}
}

// URL joins the service base URL and a relative path.
func (e Endpoints) URL(service Service, path string) (string, error) {
	base, ok := e.Base[service]
	if !ok || base == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"), nil
}
