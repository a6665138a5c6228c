// Package mock provides an httptest backend emulating the remote dashboard API
// (Shopify install and callback, refresh-token grant, logout and scripted
// resources) so the gateway and session controller can be tested without
// network access.
package mock
