package diagnosis

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/wisbric/kubeowl/pkg/fault"
)

// scriptedLLM returns a fixed reply and counts calls.
type scriptedLLM struct {
	reply string
	err   error
	calls int
}

func (s *scriptedLLM) Chat(_ context.Context, _, _ string, _ float64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func defaultOptions() Options {
	return Options{
		Enabled:      true,
		MinSeverity:  fault.SeverityMedium,
		CacheEnabled: true,
		CacheTTL:     30 * time.Minute,
	}
}

func newTestEngine(llm LLMClient, opts Options) *Engine {
	// No accessor: evidence collection is skipped (non-Pod or nil accessor
	// degrades to empty evidence by design).
	return NewEngine(nil, llm, opts, 0.7, slog.Default())
}

func TestDiagnose_DisabledUsesFallback(t *testing.T) {
	llm := &scriptedLLM{reply: wellFormedReply}
	opts := defaultOptions()
	opts.Enabled = false
	e := newTestEngine(llm, opts)

	result := e.Diagnose(context.Background(), "c1", sampleFault("AUTHENTICATION_FAILED"), nil)
	if !result.FromFallback {
		t.Error("disabled AI must yield a fallback result")
	}
	if llm.calls != 0 {
		t.Errorf("LLM called %d times, want 0", llm.calls)
	}
	if len(result.Solutions) == 0 {
		t.Error("fallback must carry solutions")
	}
}

func TestDiagnose_SeverityGate(t *testing.T) {
	llm := &scriptedLLM{reply: wellFormedReply}
	e := newTestEngine(llm, defaultOptions())

	low := sampleFault("AUTHENTICATION_FAILED")
	low.Severity = fault.SeverityLow

	result := e.Diagnose(context.Background(), "c1", low, nil)
	if !result.FromFallback {
		t.Error("LOW severity must be gated out under a MEDIUM floor")
	}
	if llm.calls != 0 {
		t.Errorf("LLM called %d times, want 0", llm.calls)
	}
}

func TestDiagnose_MediumPassesGate(t *testing.T) {
	llm := &scriptedLLM{reply: wellFormedReply}
	e := newTestEngine(llm, defaultOptions())

	f := sampleFault("AUTHENTICATION_FAILED")
	f.Severity = fault.SeverityMedium

	result := e.Diagnose(context.Background(), "c1", f, nil)
	if result.FromFallback {
		t.Error("MEDIUM severity passes a MEDIUM floor")
	}
	if llm.calls != 1 {
		t.Errorf("LLM called %d times, want 1", llm.calls)
	}
}

func TestDiagnose_CacheHitSkipsLLM(t *testing.T) {
	llm := &scriptedLLM{reply: wellFormedReply}
	e := newTestEngine(llm, defaultOptions())

	first := sampleFault("AUTHENTICATION_FAILED")
	second := sampleFault("AUTHENTICATION_FAILED")
	second.ResourceName = "web-7d9f8c6b54-zzzzz" // different pod, same shape

	r1 := e.Diagnose(context.Background(), "c1", first, nil)
	r2 := e.Diagnose(context.Background(), "c1", second, nil)

	if llm.calls != 1 {
		t.Errorf("LLM called %d times, want 1 (second call must hit the cache)", llm.calls)
	}
	if r1 != r2 {
		t.Error("cache hit must return the identical result value")
	}
}

func TestDiagnose_LLMFailureFallsBack(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("upstream 500")}
	e := newTestEngine(llm, defaultOptions())

	result := e.Diagnose(context.Background(), "c1", sampleFault("AUTHENTICATION_FAILED"), nil)
	if !result.FromFallback {
		t.Error("LLM failure must degrade to fallback, not error")
	}
	if len(result.Solutions) == 0 {
		t.Error("fallback must carry the static solution template")
	}
}

func TestDiagnose_MalformedReplyKeepsProse(t *testing.T) {
	llm := &scriptedLLM{reply: "이 장애는 이미지 인증 문제로 보입니다. 자세한 형식 없이 설명만 드립니다."}
	e := newTestEngine(llm, defaultOptions())

	result := e.Diagnose(context.Background(), "c1", sampleFault("AUTHENTICATION_FAILED"), nil)
	if !result.FromFallback {
		t.Error("malformed reply must use fallback solutions")
	}
	if result.Diagnosis == "" {
		t.Error("the cleaned prose must be preserved as the raw diagnosis")
	}
}

func TestDiagnose_FallbackPerTypeTemplates(t *testing.T) {
	opts := defaultOptions()
	opts.Enabled = false
	e := newTestEngine(&scriptedLLM{}, opts)

	for _, typ := range []fault.Type{
		fault.TypeImagePullBackOff,
		fault.TypeCrashLoopBackOff,
		fault.TypeOOMKilled,
		fault.TypePending,
	} {
		f := sampleFault("")
		f.Type = typ
		result := e.Diagnose(context.Background(), "c1", f, nil)
		if len(result.Solutions) != 3 {
			t.Errorf("%s: got %d fallback steps, want the dedicated 3-step list", typ, len(result.Solutions))
		}
	}

	f := sampleFault("")
	f.Type = fault.TypeNetworkError
	result := e.Diagnose(context.Background(), "c1", f, nil)
	if len(result.Solutions) != len(genericSolutions) {
		t.Errorf("generic family should use the generic trio, got %d", len(result.Solutions))
	}
}

func TestRelatedFaults_SameResourceOnly(t *testing.T) {
	primary := sampleFault("AUTHENTICATION_FAILED")
	all := []fault.Info{
		primary,
		{Type: fault.TypeOOMKilled, ResourceKind: "Pod", Namespace: "prod", ResourceName: primary.ResourceName},
		{Type: fault.TypeOOMKilled, ResourceKind: "Pod", Namespace: "prod", ResourceName: "other-pod"},
		{Type: fault.TypeDeploymentUnavailable, ResourceKind: "Deployment", Namespace: "prod", ResourceName: "web"},
	}
	related := RelatedFaults(primary, all)
	if len(related) != 1 {
		t.Fatalf("got %d related faults, want 1", len(related))
	}
	if related[0].Type != fault.TypeOOMKilled {
		t.Errorf("related fault = %s", related[0].Type)
	}
}
