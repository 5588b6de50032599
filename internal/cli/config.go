package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/foldview/foldview/pkg/cache"
	"github.com/foldview/foldview/pkg/layout"
	"github.com/foldview/foldview/pkg/queue"
)

// defaultConfigFile is tried when no --config path is given.
const defaultConfigFile = "foldview.toml"

// duration wraps time.Duration so TOML values can be written as "30s".
type duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Config is the file-backed CLI configuration. Every field has a working
// default, so a missing or partial foldview.toml is fine.
type Config struct {
	Queue   QueueSection   `toml:"queue"`
	Layout  LayoutSection  `toml:"layout"`
	FitView FitViewSection `toml:"fitview"`
	Cache   CacheSection   `toml:"cache"`
}

// QueueSection tunes operation timeouts and retries.
type QueueSection struct {
	PipelineTimeout duration `toml:"pipeline_timeout"`
	ToggleTimeout   duration `toml:"toggle_timeout"`
	ImportTimeout   duration `toml:"import_timeout"`
	MoveTimeout     duration `toml:"move_timeout"`
	SearchTimeout   duration `toml:"search_timeout"`
	PipelineRetries int      `toml:"pipeline_retries"`
}

// LayoutSection tunes the layered engine's spacing.
type LayoutSection struct {
	NodeWidth  float64 `toml:"node_width"`
	NodeHeight float64 `toml:"node_height"`
	GapX       float64 `toml:"gap_x"`
	GapY       float64 `toml:"gap_y"`
	Padding    float64 `toml:"padding"`
	LabelBand  float64 `toml:"label_band"`
}

// FitViewSection tunes viewport-fit behavior for large graphs.
type FitViewSection struct {
	Threshold       int      `toml:"threshold"`
	Padding         float64  `toml:"padding"`
	ReducedPadding  float64  `toml:"reduced_padding"`
	Duration        duration `toml:"duration"`
	ReducedDuration duration `toml:"reduced_duration"`
}

// CacheSection selects the cache backend.
type CacheSection struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// DefaultConfig returns the stock configuration, mirroring the queue and
// layout package defaults.
func DefaultConfig() Config {
	qc := queue.DefaultConfig()
	return Config{
		Queue: QueueSection{
			PipelineTimeout: duration(qc.PipelineTimeout),
			ToggleTimeout:   duration(qc.ToggleTimeout),
			ImportTimeout:   duration(qc.ImportTimeout),
			MoveTimeout:     duration(qc.MoveTimeout),
			SearchTimeout:   duration(qc.SearchTimeout),
			PipelineRetries: qc.PipelineRetries,
		},
		Layout: LayoutSection{
			NodeWidth:  layout.DefaultNodeWidth,
			NodeHeight: layout.DefaultNodeHeight,
			GapX:       layout.DefaultGapX,
			GapY:       layout.DefaultGapY,
			Padding:    layout.DefaultPadding,
			LabelBand:  layout.DefaultLabelBand,
		},
		FitView: FitViewSection{
			Threshold:       qc.FitViewThreshold,
			Padding:         qc.FitViewPadding,
			ReducedPadding:  qc.FitViewReducedPadding,
			Duration:        duration(qc.FitViewDuration),
			ReducedDuration: duration(qc.FitViewReducedDuration),
		},
	}
}

// LoadConfig reads a TOML config file and overlays it on the defaults.
// When path is empty, foldview.toml in the working directory is tried; a
// missing file in either case simply yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return cfg, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// QueueConfig converts the file configuration into queue tuning.
func (c Config) QueueConfig() queue.Config {
	return queue.Config{
		PipelineTimeout:        time.Duration(c.Queue.PipelineTimeout),
		ToggleTimeout:          time.Duration(c.Queue.ToggleTimeout),
		ImportTimeout:          time.Duration(c.Queue.ImportTimeout),
		MoveTimeout:            time.Duration(c.Queue.MoveTimeout),
		SearchTimeout:          time.Duration(c.Queue.SearchTimeout),
		PipelineRetries:        c.Queue.PipelineRetries,
		FitViewThreshold:       c.FitView.Threshold,
		FitViewPadding:         c.FitView.Padding,
		FitViewReducedPadding:  c.FitView.ReducedPadding,
		FitViewDuration:        time.Duration(c.FitView.Duration),
		FitViewReducedDuration: time.Duration(c.FitView.ReducedDuration),
	}
}

// Engine builds the layered layout engine from the configured spacing.
func (c Config) Engine() *layout.Layered {
	return &layout.Layered{
		NodeWidth:  c.Layout.NodeWidth,
		NodeHeight: c.Layout.NodeHeight,
		GapX:       c.Layout.GapX,
		GapY:       c.Layout.GapY,
		Padding:    c.Layout.Padding,
		LabelBand:  c.Layout.LabelBand,
	}
}

// LayoutKeyOpts derives the cache key parameters that affect layout output.
func (c Config) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		NodeSpacing:  c.Layout.GapX,
		LayerSpacing: c.Layout.GapY,
		Padding:      c.Layout.Padding,
		LabelBand:    c.Layout.LabelBand,
	}
}
