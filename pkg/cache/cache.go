package cache

import (
	"context"
	"time"
)

// TTL values for the different cache layers.
const (
	// TTLLayout is how long computed layouts stay valid. Layouts are keyed
	// by a content hash of the visible graph, so stale entries are only a
	// disk-space concern, never a correctness one.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact is how long rendered artifacts (DOT, SVG) stay valid.
	TTLArtifact = 24 * time.Hour

	// TTLNone disables expiration.
	TTLNone = 0
)

// Cache is the storage interface for computed layouts and rendered artifacts.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present (a miss is not an error).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer generates cache keys for the cacheable pipeline stages.
type Keyer interface {
	// LayoutKey generates a key for a computed layout. graphHash is a
	// content hash of the visible graph the layout was computed from.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact. layoutHash is a
	// content hash of the layout the artifact was rendered from.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout parameters that affect the computed result.
// Two graphs with the same hash but different spacing must not share an entry.
type LayoutKeyOpts struct {
	NodeSpacing  float64 `json:"node_spacing"`
	LayerSpacing float64 `json:"layer_spacing"`
	Padding      float64 `json:"padding"`
	LabelBand    float64 `json:"label_band"`
}

// ArtifactKeyOpts are the render parameters that affect the output bytes.
type ArtifactKeyOpts struct {
	Format string `json:"format"` // "dot" or "svg"
}

// DefaultKeyer generates hash-based keys with stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a computed layout.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
