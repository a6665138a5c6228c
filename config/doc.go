// Package config defines storegate client options, loadable from YAML through
// afs and bindable to command line flags and environment variables.
package config
