package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"gopkg.in/yaml.v3"
)

// Manifest lists the labelled policy documents that make up the index.
type Manifest struct {
	Documents []ManifestDocument `yaml:"documents"`
}

type ManifestDocument struct {
	Path       string `yaml:"path"`
	Country    string `yaml:"country"`
	PolicyType string `yaml:"policy_type"`
}

// LoadManifest parses a manifest file. Relative document paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Documents) == 0 {
		return nil, fmt.Errorf("manifest %s lists no documents", path)
	}

	base := filepath.Dir(path)
	for i := range m.Documents {
		d := &m.Documents[i]
		if strings.TrimSpace(d.Path) == "" {
			return nil, fmt.Errorf("manifest %s: document %d has no path", path, i)
		}
		if strings.TrimSpace(d.Country) == "" {
			return nil, fmt.Errorf("manifest %s: document %s has no country", path, d.Path)
		}
		if !filepath.IsAbs(d.Path) {
			d.Path = filepath.Join(base, d.Path)
		}
	}
	return &m, nil
}

// NewPolicyLoader returns a loader reading a policy file into a single
// document whose id is the file name.
func NewPolicyLoader(ctx context.Context) (document.Loader, error) {
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{UseNameAsID: true})
	if err != nil {
		return nil, fmt.Errorf("create file loader: %w", err)
	}
	return loader, nil
}
