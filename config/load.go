package config

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Load reads YAML (or JSON) options from URL, any scheme supported by afs.
func Load(ctx context.Context, URL string) (*Options, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download config %v: %w", URL, err)
	}
	ret := &Options{}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	return ret, nil
}
