// Package session implements the login, refresh and logout lifecycle on top of
// a store.Store and the request gateway.
//
// Login starts the Shopify install handshake, CompleteLogin exchanges the
// callback parameters for a credential, Refresh runs the refresh-token grant
// and Logout revokes remotely (best effort) before clearing local state.
// Expire is meant to be subscribed to gateway.Gateway.OnUnauthorized, so a 401
// anywhere sends the host application back to its login route.
package session
