package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if time.Duration(cfg.Queue.PipelineTimeout) != 30*time.Second {
		t.Errorf("default pipeline timeout = %v, want 30s", time.Duration(cfg.Queue.PipelineTimeout))
	}
	if cfg.Queue.PipelineRetries != 1 {
		t.Errorf("default pipeline retries = %d, want 1", cfg.Queue.PipelineRetries)
	}
	if cfg.FitView.Threshold != 200 {
		t.Errorf("default fit-view threshold = %d, want 200", cfg.FitView.Threshold)
	}
	if cfg.Layout.GapX <= 0 || cfg.Layout.GapY <= 0 {
		t.Error("default layout spacing should be positive")
	}
}

func TestLoadConfigMissingDefault(t *testing.T) {
	// No foldview.toml in a fresh directory yields defaults without error
	oldWD, _ := os.Getwd()
	defer os.Chdir(oldWD)
	os.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error: %v", err)
	}
	if cfg.FitView.Threshold != DefaultConfig().FitView.Threshold {
		t.Error("missing default config should yield defaults")
	}
}

func TestLoadConfigMissingExplicit(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("explicit missing config file should error")
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foldview.toml")
	content := `
[queue]
pipeline_timeout = "45s"
pipeline_retries = 3

[layout]
gap_x = 64

[fitview]
threshold = 100

[cache]
disabled = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if time.Duration(cfg.Queue.PipelineTimeout) != 45*time.Second {
		t.Errorf("pipeline timeout = %v, want 45s", time.Duration(cfg.Queue.PipelineTimeout))
	}
	if cfg.Queue.PipelineRetries != 3 {
		t.Errorf("pipeline retries = %d, want 3", cfg.Queue.PipelineRetries)
	}
	if cfg.Layout.GapX != 64 {
		t.Errorf("gap_x = %v, want 64", cfg.Layout.GapX)
	}
	if cfg.FitView.Threshold != 100 {
		t.Errorf("threshold = %d, want 100", cfg.FitView.Threshold)
	}
	if !cfg.Cache.Disabled {
		t.Error("cache should be disabled")
	}

	// Untouched fields keep their defaults
	if time.Duration(cfg.Queue.ToggleTimeout) != 10*time.Second {
		t.Errorf("toggle timeout = %v, want default 10s", time.Duration(cfg.Queue.ToggleTimeout))
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foldview.toml")
	if err := os.WriteFile(path, []byte("queue = nonsense"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("invalid TOML should error")
	}
}

func TestConfigQueueConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Queue.PipelineTimeout = duration(time.Minute)
	cfg.FitView.Padding = 99

	qc := cfg.QueueConfig()
	if qc.PipelineTimeout != time.Minute {
		t.Errorf("QueueConfig pipeline timeout = %v, want 1m", qc.PipelineTimeout)
	}
	if qc.FitViewPadding != 99 {
		t.Errorf("QueueConfig fit-view padding = %v, want 99", qc.FitViewPadding)
	}
}

func TestConfigEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.NodeWidth = 200

	eng := cfg.Engine()
	if eng.NodeWidth != 200 {
		t.Errorf("Engine node width = %v, want 200", eng.NodeWidth)
	}
	if eng.GapY != cfg.Layout.GapY {
		t.Errorf("Engine gap y = %v, want %v", eng.GapY, cfg.Layout.GapY)
	}
}
