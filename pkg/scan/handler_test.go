package scan

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wisbric/kubeowl/pkg/fault"
)

func TestHandleScanNamespace_DedupedResponse(t *testing.T) {
	h := NewHandler(newTestScanner(oomCrashLoopPod()), nil, slog.Default())
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/c1/namespaces/prod", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	// The pod carries overlapping CrashLoopBackOff and OOMKilled signals;
	// the response must be post-dedup: one fault per resource.
	if len(body.Faults) != 1 {
		t.Fatalf("got %d faults, want 1 after dedup", len(body.Faults))
	}
	if body.Stats.Total != 1 || body.Stats.Critical != 1 {
		t.Errorf("stats = %+v", body.Stats)
	}
	if body.Faults[0].Severity != fault.SeverityCritical {
		t.Errorf("severity = %v, want CRITICAL", body.Faults[0].Severity)
	}
}

func TestHandleScanCluster_EmptyClusterYieldsEmptyList(t *testing.T) {
	h := NewHandler(newTestScanner(), nil, slog.Default())
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/c1", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var body Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Faults == nil {
		t.Error("faults must encode as [] rather than null")
	}
	if len(body.Faults) != 0 || body.Stats.Total != 0 {
		t.Errorf("unexpected findings on an empty cluster: %+v", body)
	}
}
