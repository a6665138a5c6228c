// Package gateway implements the request gateway every feature module routes
// REST calls through.
//
// A Gateway composes explicit middlewares around a transport Sender:
//
//	RequestID -> Invalidate -> Retry -> RateLimit -> Instrument -> Bearer -> Transport
//
// Bearer attaches the current credential on every attempt. Retry classifies
// each failed attempt and resubmits retryable ones with exponential backoff
// (1s, 2s, 4s by default); a 401 ends the sequence at once. Invalidate then
// clears the token store and notifies subscribers with the terminal error.
// Terminal failures surface as *failure.Error.
package gateway
