package diagnosis

import (
	"strings"
	"testing"

	"github.com/wisbric/kubeowl/pkg/fault"
)

func pendingPVCFault() fault.Info {
	return fault.Info{
		Type:         fault.TypePending,
		Severity:     fault.SeverityHigh,
		ResourceKind: "Pod",
		Namespace:    "prod",
		ResourceName: "web-0",
		Summary:      "Pod web-0 is stuck in Pending",
		Symptoms:     []string{"pod has unbound immediate PersistentVolumeClaims"},
		Context: map[string]string{
			fault.CtxOwnerKind:         "StatefulSet",
			fault.CtxOwnerName:         "web",
			fault.CtxIssueCategory:     "PVC_BINDING",
			fault.CtxSchedulingMessage: "0/3 nodes are available: pod has unbound immediate PersistentVolumeClaims.",
			fault.CtxClusterID:         "c1",
		},
	}
}

func TestSystemPrompt_HasAllSections(t *testing.T) {
	prompt := BuildSystemPrompt(pendingPVCFault())
	for _, tag := range []string{"<role>", "<constraints>", "<diagnostic_rules>",
		"<solution_requirements>", "<placeholders>", "<output_format>"} {
		if !strings.Contains(prompt, tag) {
			t.Errorf("system prompt missing section %s", tag)
		}
	}
	for _, heading := range []string{headingRootCause, headingSolutions, headingPrevention} {
		if !strings.Contains(prompt, heading) {
			t.Errorf("system prompt missing output heading %s", heading)
		}
	}
}

func TestSystemPrompt_StatefulSetPVCRule(t *testing.T) {
	prompt := BuildSystemPrompt(pendingPVCFault())
	if !strings.Contains(prompt, "volumeClaimTemplates") {
		t.Error("StatefulSet PVC rule must instruct editing volumeClaimTemplates")
	}
	if !strings.Contains(prompt, "별도의 PVC를 새로 만드는 해결책은 금지") {
		t.Error("StatefulSet PVC rule must forbid creating a separate PVC")
	}
}

func TestSystemPrompt_ResourceShortageForbidsPVC(t *testing.T) {
	f := pendingPVCFault()
	f.Context[fault.CtxIssueCategory] = "RESOURCE_SHORTAGE_CPU"
	prompt := BuildSystemPrompt(f)
	if !strings.Contains(prompt, "PVC나 StorageClass 관련 해결책은 금지") {
		t.Error("resource shortage rule must forbid PVC/StorageClass fixes")
	}
	if strings.Contains(prompt, "volumeClaimTemplates") {
		t.Error("resource shortage rules must not mention volumeClaimTemplates")
	}
}

func TestSystemPrompt_CrashLoopExitCodeCheatsheet(t *testing.T) {
	f := pendingPVCFault()
	f.Type = fault.TypeCrashLoopBackOff
	prompt := BuildSystemPrompt(f)
	for _, code := range []string{"1=", "126=", "127=", "137=", "143="} {
		if !strings.Contains(prompt, code) {
			t.Errorf("crashloop rules missing exit code %s", code)
		}
	}
}

func TestUserPrompt_ContainsEvidenceSections(t *testing.T) {
	f := pendingPVCFault()
	logs := []string{"ERROR failed to bind volume"}
	events := []string{"- [Warning] FailedScheduling (x4 times): unbound PVC"}

	prompt := BuildUserPrompt(f, nil, logs, events)

	if !strings.Contains(prompt, "<scheduling_message>") {
		t.Error("scheduling message section missing")
	}
	if !strings.Contains(prompt, f.Context[fault.CtxSchedulingMessage]) {
		t.Error("raw scheduling message must be included verbatim")
	}
	if !strings.Contains(prompt, "<issue_category>PVC_BINDING</issue_category>") {
		t.Error("issue category missing")
	}
	if !strings.Contains(prompt, "ERROR failed to bind volume") {
		t.Error("filtered logs missing")
	}
	if !strings.Contains(prompt, "(x4 times)") {
		t.Error("deduplicated events missing")
	}
	if !strings.Contains(prompt, headingRootCause) {
		t.Error("answer template missing")
	}
}

func TestUserPrompt_OwnerEditTarget(t *testing.T) {
	prompt := BuildUserPrompt(pendingPVCFault(), nil, nil, nil)
	if !strings.Contains(prompt, `StatefulSet "web"`) {
		t.Errorf("edit target sentence must name the owning StatefulSet")
	}
}

func TestUserPrompt_ExcludesClusterID(t *testing.T) {
	prompt := BuildUserPrompt(pendingPVCFault(), nil, nil, nil)
	if strings.Contains(prompt, "clusterId") {
		t.Error("cluster id must never reach the prompt")
	}
}

func TestUserPrompt_LimitsRelatedFaults(t *testing.T) {
	related := []fault.Info{
		{Type: fault.TypeOOMKilled, Summary: "first"},
		{Type: fault.TypeNetworkError, Summary: "second"},
		{Type: fault.TypeEvicted, Summary: "third"},
	}
	prompt := BuildUserPrompt(pendingPVCFault(), related, nil, nil)
	if !strings.Contains(prompt, "first") || !strings.Contains(prompt, "second") {
		t.Error("first two related faults must appear")
	}
	if strings.Contains(prompt, "third") {
		t.Error("related faults are capped at two")
	}
}

func TestTemperatureFor(t *testing.T) {
	if got := TemperatureFor(fault.TypeImagePullBackOff, 0.7); got != 0.3 {
		t.Errorf("decisive family temperature = %v, want 0.3", got)
	}
	if got := TemperatureFor(fault.TypeNetworkError, 0.7); got != 0.7 {
		t.Errorf("default temperature = %v, want 0.7", got)
	}
	if got := TemperatureFor(fault.TypeNetworkError, 0); got != 0.7 {
		t.Errorf("zero default should fall back to 0.7, got %v", got)
	}
}
