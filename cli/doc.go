// Package cli implements the storegate command line.
package cli
