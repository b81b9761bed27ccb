package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/shadowtree/pkg/commit"
	"github.com/go-drift/shadowtree/pkg/component"
	"github.com/go-drift/shadowtree/pkg/observability"
	"github.com/go-drift/shadowtree/pkg/surface"
	"github.com/go-drift/shadowtree/pkg/tree"
)

func newView(tag tree.Tag, raw tree.RawProps, children ...*tree.Node) *tree.Node {
	d := component.NewView()
	props := d.CloneProps(nil, raw)
	return d.CreateShadowNode(tree.Fields{
		Tag:      tag,
		Surface:  1,
		Props:    props,
		State:    d.CreateInitialState(props),
		Children: tree.ChildrenOf(children...),
	})
}

func newTestServer(t *testing.T) (*httptest.Server, *commit.Engine, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics("test", reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	surfaces := surface.NewRegistry(surface.WithMetrics(metrics))
	root := newView(1, tree.RawProps{"width": 100, "height": 100},
		newView(10, tree.RawProps{"x": 5, "width": 20}))
	engine := commit.New(1, root, commit.WithMetrics(metrics))
	if err := surfaces.Register(engine); err != nil {
		t.Fatalf("Register: %v", err)
	}
	srv := httptest.NewServer(NewServer(surfaces, reg).Handler())
	t.Cleanup(srv.Close)
	return srv, engine, reg
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	var body struct {
		Status   string  `json:"status"`
		Surfaces []int64 `json:"surfaces"`
	}
	if code := get(t, srv.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Status != "ok" || !cmp.Equal(body.Surfaces, []int64{1}) {
		t.Errorf("health = %+v", body)
	}
}

func TestSurfacesAndTree(t *testing.T) {
	srv, engine, _ := newTestServer(t)
	_, err := engine.TryCommit(context.Background(), func(root *tree.Node) (*tree.Node, bool) {
		return root.Update(10, func(n *tree.Node) *tree.Node {
			return n.Clone(tree.Fragment{Props: tree.Some[tree.Props](component.ViewProps{
				Frame:   tree.Rect{Size: tree.Size{Width: 40}},
				Opacity: 1,
			})})
		})
	}, time.Now())
	if err != nil {
		t.Fatalf("TryCommit: %v", err)
	}

	var infos []SurfaceInfo
	if code := get(t, srv.URL+"/surfaces", &infos); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if diff := cmp.Diff([]SurfaceInfo{{ID: 1, Generation: 1, Nodes: 2, FailedCommits: 0}}, infos); diff != "" {
		t.Errorf("surfaces mismatch (-want +got):\n%s", diff)
	}

	var resp struct {
		Generation uint64 `json:"generation"`
		Root       struct {
			Tag      int64 `json:"tag"`
			Sealed   bool  `json:"sealed"`
			Children []struct {
				Tag   int64              `json:"tag"`
				Frame map[string]float64 `json:"frame"`
			} `json:"children"`
		} `json:"root"`
	}
	if code := get(t, srv.URL+"/surfaces/1/tree", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Generation != 1 || resp.Root.Tag != 1 || !resp.Root.Sealed {
		t.Errorf("tree = %+v", resp)
	}
	if len(resp.Root.Children) != 1 || resp.Root.Children[0].Frame["width"] != 40 {
		t.Errorf("children = %+v", resp.Root.Children)
	}
}

func TestSurfacesReportsFailedCommits(t *testing.T) {
	srv, engine, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.TryCommit(ctx, func(root *tree.Node) (*tree.Node, bool) {
		return root.Clone(tree.Fragment{}), true
	}, time.Now()); err == nil {
		t.Fatal("commit with a canceled context should fail")
	}

	var infos []SurfaceInfo
	if code := get(t, srv.URL+"/surfaces", &infos); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(infos) != 1 || infos[0].FailedCommits != 1 || infos[0].Generation != 0 {
		t.Errorf("surfaces = %+v", infos)
	}
}

func TestTreeErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)
	if code := get(t, srv.URL+"/surfaces/9/tree", nil); code != http.StatusNotFound {
		t.Errorf("unknown surface status = %d", code)
	}
	if code := get(t, srv.URL+"/surfaces/abc/tree", nil); code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", code)
	}
}

func TestCommits(t *testing.T) {
	srv, engine, _ := newTestServer(t)
	bump := func(root *tree.Node) (*tree.Node, bool) {
		return root.Clone(tree.Fragment{}), true
	}
	for i := 0; i < 3; i++ {
		engine.TryCommit(context.Background(), bump, time.Now())
	}

	var resp struct {
		Samples []commit.Sample `json:"samples"`
	}
	if code := get(t, srv.URL+"/surfaces/1/commits?limit=2", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(resp.Samples))
	}
	if last := resp.Samples[1]; last.Generation != 3 || last.Status != "committed" {
		t.Errorf("last sample = %+v", last)
	}
	if code := get(t, srv.URL+"/surfaces/1/commits?limit=-1", nil); code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, engine, _ := newTestServer(t)
	engine.TryCommit(context.Background(), func(root *tree.Node) (*tree.Node, bool) {
		return root.Clone(tree.Fragment{}), true
	}, time.Now())

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `test_commit_commits_total{status="committed"} 1`) {
		t.Errorf("metrics output missing commit counter:\n%s", body)
	}
}

func TestStartStop(t *testing.T) {
	s := NewServer(surface.NewRegistry(), prometheus.NewRegistry())
	port, err := s.Start(0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	again, err := s.Start(0)
	if err != nil || again != port {
		t.Errorf("second Start = %d, %v; want %d", again, err, port)
	}

	url := fmt.Sprintf("http://localhost:%d/health", port)
	if code := get(t, url, nil); code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("second Stop: %v", err)
	}
	if _, err := http.Get(url); err == nil {
		t.Error("server still answering after Stop")
	}
}

func TestSafeFloat(t *testing.T) {
	data, err := json.Marshal(SafeRect{Width: SafeFloat(math.Inf(1)), Height: SafeFloat(math.NaN())})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"x":0,"y":0,"width":"Infinity","height":"NaN"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
