package offline

import (
	"path"
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// DefaultName is the cache name of the current asset version.
const DefaultName = "labelsheet-v1"

// Manifest lists the assets installed under one cache name.
//
// Assets are either paths relative to the fetcher's base URL ("./",
// "./index.html") or absolute http(s) URLs.
type Manifest struct {
	Name   string   `json:"name" toml:"name" yaml:"name"`
	Assets []string `json:"assets" toml:"assets" yaml:"assets"`
}

// DefaultManifest returns the editor's page, its local files and the pinned
// script libraries it loads from a CDN.
func DefaultManifest() Manifest {
	return Manifest{
		Name: DefaultName,
		Assets: []string{
			"./",
			"./index.html",
			"./style.css",
			"./script.js",
			"./manifest.json",
			"https://cdn.jsdelivr.net/npm/jsbarcode@3.11.6/dist/JsBarcode.all.min.js",
			"https://cdn.jsdelivr.net/npm/qrcode@1.5.4/build/qrcode.min.js",
			"https://cdn.jsdelivr.net/npm/html2canvas@1.4.1/dist/html2canvas.min.js",
		},
	}
}

// Validate checks the cache name and every asset reference.
func (m Manifest) Validate() error {
	if err := errors.ValidatePrefix(m.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "cache name %q", m.Name)
	}
	if len(m.Assets) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "manifest %s lists no assets", m.Name)
	}
	for _, a := range m.Assets {
		if err := validateAsset(a); err != nil {
			return err
		}
	}
	return nil
}

func validateAsset(raw string) error {
	if isAbsolute(raw) {
		return errors.ValidateURL(raw)
	}
	if raw == "./" || raw == "." {
		return nil
	}
	return errors.ValidateAssetPath(strings.TrimPrefix(raw, "./"))
}

func isAbsolute(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// Key returns the store key for an asset reference. Absolute URLs are kept
// as they are; local references become rooted paths, so "./index.html",
// "index.html" and "/index.html" share the key "/index.html" and "./" maps
// to "/".
func Key(raw string) string {
	if isAbsolute(raw) {
		return raw
	}
	if raw == "." {
		return "/"
	}
	return path.Clean("/" + strings.TrimPrefix(raw, "./"))
}

// relative turns a local key back into a reference relative to the base URL.
func relative(key string) string {
	if isAbsolute(key) {
		return key
	}
	return "." + key
}
