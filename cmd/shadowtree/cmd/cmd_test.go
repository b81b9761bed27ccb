package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/shadowtree/pkg/config"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func testApp(t *testing.T) *app {
	t.Helper()
	cfg, err := (&config.Config{Log: config.LogConfig{Level: "error"}}).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	a, err := newAppWith(cfg)
	if err != nil {
		t.Fatalf("newAppWith: %v", err)
	}
	return a
}

func TestExecuteVersion(t *testing.T) {
	out := captureStdout(t)
	if err := Execute([]string{"--version"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "shadowtree version "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestExecuteHelpListsCommands(t *testing.T) {
	out := captureStdout(t)
	if err := Execute(nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, name := range []string{"stress", "serve", "version"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("help missing %q", name)
		}
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	captureStdout(t)
	if err := Execute([]string{"frobnicate"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestExecuteConfigFlag(t *testing.T) {
	captureStdout(t)
	prev := configDir
	t.Cleanup(func() { configDir = prev })

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shadowtree.yaml"), []byte("version: v3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := Execute([]string{"--config", dir, "stress", "--workers", "1", "--updates", "1"})
	if err == nil || !strings.Contains(err.Error(), "unsupported config version") {
		t.Errorf("Execute = %v, want config version error", err)
	}
}

func TestParseStressArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    stressOptions
		wantErr bool
	}{
		{"defaults", nil, stressOptions{workers: 8, updates: 1000, backoff: -1}, false},
		{"all", []string{"--workers", "2", "--updates", "5", "--backoff", "10us"}, stressOptions{workers: 2, updates: 5, backoff: 10 * time.Microsecond}, false},
		{"missing value", []string{"--workers"}, stressOptions{}, true},
		{"zero workers", []string{"--workers", "0"}, stressOptions{}, true},
		{"unknown", []string{"--fast"}, stressOptions{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStressArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(stressOptions{})); diff != "" {
					t.Errorf("options mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestParseServeArgs(t *testing.T) {
	got, err := parseServeArgs([]string{"--port", "0", "--tick", "1s"}, 9393)
	if err != nil {
		t.Fatalf("parseServeArgs: %v", err)
	}
	want := serveOptions{port: 0, leaves: 4, tick: time.Second}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestStressKeepsEveryUpdate(t *testing.T) {
	a := testApp(t)
	a.cfg.Policy.MaxAttempts = 1 << 20
	a, err := newAppWith(a.cfg)
	if err != nil {
		t.Fatalf("newAppWith: %v", err)
	}

	report, err := stress(context.Background(), a, stressOptions{workers: 4, updates: 25})
	if err != nil {
		t.Fatalf("stress: %v", err)
	}
	if report.Committed != 100 || report.Failed != 0 || report.Lost != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.Generation != uint64(report.Committed) {
		t.Errorf("generation advanced %d for %d commits", report.Generation, report.Committed)
	}
	if report.Nodes != 5 {
		t.Errorf("nodes = %d, want root plus 4 leaves", report.Nodes)
	}
}
