// Package failure classifies gateway outcomes into retryable and terminal
// failure classes and derives the user-facing message of a failed call.
package failure
