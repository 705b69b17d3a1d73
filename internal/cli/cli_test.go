package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OFFIS-RIT/logicflow/pkg/graph"

	"github.com/fatih/color"
)

const sampleDoc = `{
	"status": "done",
	"Core_Thesis": "Cities should tax congestion",
	"공통점": ["both cite London"],
	"차이점": ["one ignores equity"],
	"neuron_map": {
		"nodes": ["toll", "traffic", "equity"],
		"edges": [
			{"source": "toll", "target": "traffic"},
			{"source": "traffic", "target": "equity", "type": "questionable"}
		]
	}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStaticJSON(t *testing.T) {
	path := writeFile(t, "doc.json", sampleDoc)
	out, err := run(t, "", "static", path, "--json")
	if err != nil {
		t.Fatalf("static error = %v", err)
	}
	var m graph.Model
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("output is not a model: %v\n%s", err, out)
	}
	core, ok := m.Node("core")
	if !ok || core.Label != "Cities should tax congestion" {
		t.Fatalf("core = %+v", core)
	}
	if _, ok := m.Node("common-0"); !ok {
		t.Error("common-0 missing")
	}
	if _, ok := m.Node("diff-0"); !ok {
		t.Error("diff-0 missing")
	}
}

func TestStaticFallbackFromStdin(t *testing.T) {
	out, err := run(t, `{"status": "done"}`, "static", "-", "--json", "--fallback", "Tolls work. Mostly.")
	if err != nil {
		t.Fatal(err)
	}
	var m graph.Model
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatal(err)
	}
	if core, _ := m.Node("core"); core.Label != "Tolls work." {
		t.Fatalf("core label = %q", core.Label)
	}
}

func TestNeuronText(t *testing.T) {
	path := writeFile(t, "doc.json", sampleDoc)
	out, err := run(t, "", "neuron", path, "--steps", "50")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"logic neuron map", "3 nodes, 2 edges", "toll -> traffic", "zone A 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "", "static", filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "layout.toml", `
[layout]
max_label_runes = 5

[force]
steps = 20

[watch]
interval = "150ms"
max_retries = 7
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Layout.MaxLabelRunes != 5 || cfg.Force.Steps != 20 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Force.Charge != -300 {
		t.Errorf("unset force fields should keep defaults, charge = %v", cfg.Force.Charge)
	}
	if cfg.Watch.Interval.Duration != 150*time.Millisecond || cfg.Watch.MaxRetries != 7 {
		t.Errorf("watch = %+v", cfg.Watch)
	}

	doc := writeFile(t, "doc.json", sampleDoc)
	out, err := run(t, "", "--config", path, "static", doc, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var m graph.Model
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatal(err)
	}
	if n, _ := m.Node("common-0"); n.Label != "both…" {
		t.Errorf("common label = %q", n.Label)
	}
}

func TestConfigInvalidDuration(t *testing.T) {
	path := writeFile(t, "layout.toml", "[watch]\ninterval = \"soon\"\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error")
	}
}

func TestWatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reports/r-1/analysis" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	out, err := run(t, "", "watch", "r-1", "--base-url", srv.URL, "--steps", "20")
	if err != nil {
		t.Fatalf("watch error = %v", err)
	}
	if !strings.Contains(out, "r-1 done") || !strings.Contains(out, "neuron: 3 nodes") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestWatchFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "failed", "error": "model timed out"}`))
	}))
	defer srv.Close()

	_, err := run(t, "", "watch", "r-2", "--base-url", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "model timed out") {
		t.Fatalf("err = %v", err)
	}
}

func TestWatchNeedsEndpoint(t *testing.T) {
	t.Setenv("ANALYSIS_BASE_URL", "")
	if _, err := run(t, "", "watch", "r-3"); err == nil {
		t.Fatal("expected an error without an endpoint")
	}
}
