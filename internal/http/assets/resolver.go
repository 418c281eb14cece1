// Package assets maps logical static asset names to their content-hashed filenames.
package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

// StaticPrefix is the URL prefix static files are served under.
const StaticPrefix = "/static/"

// AssetResolver reads manifest.json ({"css/app.css": "css/app.3f2a1c.css"}) and
// rewrites logical asset names to hashed ones.
type AssetResolver struct {
	fsys         fs.FS
	manifestPath string

	mu       sync.RWMutex
	manifest map[string]string
}

// NewAssetResolverFromDisk creates a resolver reading the manifest from the local filesystem.
func NewAssetResolverFromDisk(manifestPath string) (*AssetResolver, error) {
	dir, file := path.Split(manifestPath)
	if dir == "" {
		dir = "."
	}
	return NewAssetResolverFromFS(os.DirFS(dir), file)
}

// NewAssetResolverFromFS creates a resolver reading the manifest from fsys.
func NewAssetResolverFromFS(fsys fs.FS, manifestPath string) (*AssetResolver, error) {
	ar := &AssetResolver{fsys: fsys, manifestPath: manifestPath}
	if err := ar.Reload(); err != nil {
		return nil, err
	}
	return ar, nil
}

// Reload re-reads the manifest. A missing manifest yields an empty mapping.
func (ar *AssetResolver) Reload() error {
	data, err := fs.ReadFile(ar.fsys, ar.manifestPath)
	manifest := map[string]string{}
	switch {
	case err == nil:
		if uerr := json.Unmarshal(data, &manifest); uerr != nil {
			return fmt.Errorf("parse asset manifest %s: %w", ar.manifestPath, uerr)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read asset manifest %s: %w", ar.manifestPath, err)
	}

	ar.mu.Lock()
	ar.manifest = manifest
	ar.mu.Unlock()
	return nil
}

// Resolve returns the URL path for logicalName, falling back to the unhashed name.
func (ar *AssetResolver) Resolve(logicalName string) string {
	name := strings.TrimPrefix(logicalName, "/")
	ar.mu.RLock()
	hashed, ok := ar.manifest[name]
	ar.mu.RUnlock()
	if ok && hashed != "" {
		name = strings.TrimPrefix(hashed, "/")
	}
	return StaticPrefix + name
}

// ResolveAsset resolves logicalName with a nil-safe resolver.
// In dev mode the manifest is re-read so rebuilt assets are picked up.
func ResolveAsset(resolver *AssetResolver, logicalName string, devMode bool) string {
	if resolver == nil {
		return StaticPrefix + strings.TrimPrefix(logicalName, "/")
	}
	if devMode {
		_ = resolver.Reload()
	}
	return resolver.Resolve(logicalName)
}
