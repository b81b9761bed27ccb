package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestNewLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("shadowtree", zerolog.DebugLevel, &buf)
	logger.Debug().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"app":"shadowtree"`, `"message":"hello"`, `"time"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"trace", zerolog.TraceLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSectionLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	s := StartSection(logger, "commit.TryCommit")
	if d := s.End(); d < 0 {
		t.Errorf("negative duration %v", d)
	}
	if !strings.Contains(buf.String(), `"section":"commit.TryCommit"`) {
		t.Errorf("output %s missing section", buf.String())
	}

	buf.Reset()
	StartSection(logger.Level(zerolog.InfoLevel), "quiet").End()
	if buf.Len() != 0 {
		t.Errorf("section logged above debug: %s", buf.String())
	}
}

func TestMetricsObserveCommit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics("test", reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.ObserveCommit(StatusCommitted, 2, 1, time.Millisecond)
	m.ObserveCommit(StatusAborted, 1, 0, 0)
	m.ObserveCommit(StatusCommitted, 1, 0, time.Millisecond)
	m.SurfaceRegistered()
	m.SurfaceRegistered()
	m.SurfaceUnregistered()
	m.NodeCreated()

	if got := testutil.ToFloat64(m.commits.WithLabelValues(StatusCommitted)); got != 2 {
		t.Errorf("committed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.commits.WithLabelValues(StatusAborted)); got != 1 {
		t.Errorf("aborted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.attempts); got != 4 {
		t.Errorf("attempts = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.conflicts); got != 1 {
		t.Errorf("conflicts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.surfaces); got != 1 {
		t.Errorf("surfaces = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics("dup", reg); err != nil {
		t.Fatalf("first NewMetrics: %v", err)
	}
	if _, err := NewMetrics("dup", reg); err == nil {
		t.Error("second registration under the same namespace should fail")
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveCommit(StatusFailed, 3, 3, 0)
	m.SurfaceRegistered()
	m.SurfaceUnregistered()
	m.NodeCreated()
}
