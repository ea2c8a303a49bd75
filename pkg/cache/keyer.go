package cache

import "github.com/matzehuels/labelsheet/pkg/sheet"

// ArtifactKeyOpts holds every export option that changes the artifact bytes.
type ArtifactKeyOpts struct {
	Format    string     `json:"format"`
	Grid      sheet.Grid `json:"grid"`
	Symbology string     `json:"symbology"`
	ShowText  bool       `json:"show_text"`
	DPI       float64    `json:"dpi"`
	Preview   bool       `json:"preview"`
	Guides    bool       `json:"guides"`
	Prefix    string     `json:"prefix"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key for one export format of a code list.
	ArtifactKey(codesHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey hashes the codes hash together with the options.
func (DefaultKeyer) ArtifactKey(codesHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", codesHash, opts)
}
