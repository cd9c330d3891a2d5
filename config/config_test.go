package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/game"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.GrpcPort != 50051 || c.WSPort != 8080 || c.TickInterval != 250*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GRPC_PORT", "9000")
	t.Setenv("WS_PORT", "9001")
	t.Setenv("TICK_INTERVAL", "1s")
	t.Setenv("JOURNAL_DIR", "/tmp/rounds")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.GrpcPort != 9000 || c.WSPort != 9001 || c.TickInterval != time.Second || c.JournalDir != "/tmp/rounds" {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	cases := map[string][2]string{
		"not a number": {"GRPC_PORT", "abc"},
		"same ports":   {"WS_PORT", "50051"},
		"zero tick":    {"TICK_INTERVAL", "0s"},
		"no players":   {"MAX_ROOM_PLAYERS", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestDefaultTuningMatchesRules(t *testing.T) {
	got := DefaultTuning().Rules()
	want := game.DefaultRules()
	if got != want {
		t.Fatalf("DefaultTuning().Rules() = %+v, want %+v", got, want)
	}
}

func TestLoadTuningOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := `
grid_size: 9
carry_claims: true
prices:
  edge: 500
phases:
  play_seconds: 300
hint:
  ttl_ms: 1500
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tu, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	r := tu.Rules()
	if r.GridSize != 9 || !r.CarryClaims || r.Pricing.Edge != 500 || r.Pricing.Interior != 2000 {
		t.Fatalf("unexpected rules %+v", r)
	}
	if r.Phases.PlayDuration != 300*time.Second || r.Phases.ClaimDuration != 10*time.Second {
		t.Fatalf("unexpected phases %+v", r.Phases)
	}
	if r.HintTTL != 1500*time.Millisecond {
		t.Fatalf("hint ttl = %v", r.HintTTL)
	}
}

func TestLoadTuningRejectsInvalidRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("grid_size: 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadTuning(path)
	if err == nil || !strings.Contains(err.Error(), "tuning.yaml") {
		t.Fatalf("expected tuning error, got %v", err)
	}
}

func TestLoadTuningEmptyPath(t *testing.T) {
	tu, err := LoadTuning("")
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tu != DefaultTuning() {
		t.Fatal("empty path should return defaults")
	}
}
