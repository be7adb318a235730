package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/cashcast/internal/config"
)

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://cash:hunter2@db:5432/cash?sslmode=disable", "postgres://cash:****@db:5432/cash?sslmode=disable"},
		{"postgres://db/cash", "postgres://db/cash"},
		{"host=db user=cash password=hunter2 dbname=cash", "host=db user=cash password=**** dbname=cash"},
		{"", "not set"},
	}
	for _, tt := range tests {
		if got := maskDSN(tt.in); got != tt.want {
			t.Errorf("maskDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret("abcdefghijkl"); got != "ab******kl" {
		t.Errorf("maskSecret = %q", got)
	}
	if got := maskSecret("short"); got != "****" {
		t.Errorf("short secret = %q", got)
	}
}

func TestTuningOverrides(t *testing.T) {
	if got := tuningOverrides(config.DefaultTuning()); len(got) != 0 {
		t.Errorf("stock tuning reported overrides: %v", got)
	}

	tun := config.DefaultTuning()
	tun.AtRiskThreshold = 0.9
	got := tuningOverrides(tun)
	if len(got) != 1 || got[0] != "at_risk_threshold = 0.9" {
		t.Errorf("overrides = %v, want [at_risk_threshold = 0.9]", got)
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", ":9000", "--detach=true"})
	want := []string{"daemon", "--addr", ":9000"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	pf := pidFile(filepath.Join(t.TempDir(), "run", "cashcastd.pid"))
	if err := pf.write(4242); err != nil {
		t.Fatal(err)
	}
	pid, err := pf.read()
	if err != nil || pid != 4242 {
		t.Fatalf("read = %d, %v", pid, err)
	}

	want := daemonRuntimeState{PID: 4242, Addr: "127.0.0.1:8787", Schedule: "@every 15m", Storage: "postgres"}
	if err := pf.writeState(want); err != nil {
		t.Fatal(err)
	}
	got, err := pf.readState()
	if err != nil || got.Addr != want.Addr || got.Schedule != want.Schedule {
		t.Fatalf("readState = %+v, %v", got, err)
	}

	pf.clear()
	if _, err := pf.read(); err == nil {
		t.Error("pid file still readable after clear")
	}
	if _, err := pf.readState(); err == nil {
		t.Error("state file still readable after clear")
	}
}

func TestPIDFileEnsureFree(t *testing.T) {
	dir := t.TempDir()
	if err := pidFile(filepath.Join(dir, "missing.pid")).ensureFree(); err != nil {
		t.Errorf("missing pid file should mean not running: %v", err)
	}

	bad := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(bad, []byte("nope\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := pidFile(bad).ensureFree(); err == nil {
		t.Error("garbage pid file should be reported")
	}
}
