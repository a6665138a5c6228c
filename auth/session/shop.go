package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const shopSuffix = ".myshopify.com"

// ErrInvalidShopDomain is returned for domains that are not myshopify.com stores.
var ErrInvalidShopDomain = errors.New("invalid shop domain")

var shopDomainExpr = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-]*[a-zA-Z0-9]\.myshopify\.com$`)

// NormalizeShopDomain strips scheme, path and trailing slash, appends the
// myshopify.com suffix to bare store names and lower-cases the result.
func NormalizeShopDomain(shop string) (string, error) {
	domain := strings.TrimSpace(shop)
	if index := strings.Index(domain, "://"); index != -1 {
		domain = domain[index+3:]
	}
	if index := strings.IndexAny(domain, "/?#"); index != -1 {
		domain = domain[:index]
	}
	domain = strings.ToLower(domain)
	if domain != "" && !strings.Contains(domain, ".") {
		domain += shopSuffix
	}
	if !shopDomainExpr.MatchString(domain) {
		return "", fmt.Errorf("%w: %q", ErrInvalidShopDomain, shop)
	}
	return domain, nil
}
