package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/router"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Prefix != "js:" {
		t.Errorf("Prefix = %q, want js:", cfg.Prefix)
	}
	if cfg.InitialPathMode() != router.FromAttribute {
		t.Errorf("InitialPathMode = %v, want attribute", cfg.InitialPathMode())
	}
	if len(cfg.Options()) != 2 {
		t.Errorf("Options() returned %d options, want 2", len(cfg.Options()))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr []string
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "overrides",
			yaml: "prefix: data-om-\ninitial_path: location\nminify: true\nlisten: 0.0.0.0:9000\ncodec: msgpack\nsession_ttl: 5m\n",
			check: func(t *testing.T, c *Config) {
				if c.Prefix != "data-om-" || !c.Minify || c.Codec != "msgpack" {
					t.Errorf("unexpected config: %+v", c)
				}
				if c.InitialPathMode() != router.FromLocation {
					t.Error("initial_path not applied")
				}
				if c.SessionTTL != 5*time.Minute {
					t.Errorf("SessionTTL = %v, want 5m", c.SessionTTL)
				}
			},
		},
		{
			name: "partial keeps defaults",
			yaml: "minify: true\n",
			check: func(t *testing.T, c *Config) {
				if c.Listen != DefaultListen || c.Codec != DefaultCodec {
					t.Errorf("defaults lost: %+v", c)
				}
			},
		},
		{
			name:    "all invalid fields reported",
			yaml:    "prefix: \"\"\ninitial_path: cookie\nlisten: nowhere\ncodec: xml\nmax_memory_mb: 0\n",
			wantErr: []string{"config.prefix", "config.initialpath", "config.listen", "config.codec", "config.maxmemorymb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Parse failed: %v", err)
				}
				tt.check(t, cfg)
				return
			}

			var multi objectmodel.MultiError
			if !errors.As(err, &multi) {
				t.Fatalf("expected MultiError, got %T: %v", err, err)
			}
			if len(multi) != len(tt.wantErr) {
				t.Errorf("got %d field errors, want %d: %v", len(multi), len(tt.wantErr), multi)
			}
			for i, field := range tt.wantErr {
				if i < len(multi) && multi[i].Field != field {
					t.Errorf("error %d field = %q, want %q", i, multi[i].Field, field)
				}
			}
		})
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("prefix: [unterminated"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("missing file should yield defaults: %v", err)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("codec: msgpack\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Codec != "msgpack" {
		t.Errorf("Codec = %q, want msgpack", cfg.Codec)
	}
}
