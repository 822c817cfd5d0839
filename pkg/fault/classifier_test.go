package fault

import (
	"log/slog"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type panickyDetector struct{}

func (panickyDetector) Type() Type                { return TypeUnknown }
func (panickyDetector) CanDetect(kind string) bool { return kind == KindPod }
func (panickyDetector) Detect(clusterID, namespace string, obj any) []Info {
	panic("boom")
}

func TestClassifier_SwallowsDetectorPanics(t *testing.T) {
	c := NewClassifier(slog.Default(), panickyDetector{}, &PendingDetector{})
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "p", Namespace: "prod"},
		Status:     corev1.PodStatus{Phase: corev1.PodPending},
	}
	faults := c.DetectFaults("c1", "prod", KindPod, pod)
	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1 from the surviving detector", len(faults))
	}
	if faults[0].Type != TypePending {
		t.Errorf("Type = %s, want PENDING", faults[0].Type)
	}
}

func TestClassifier_AttachesClusterID(t *testing.T) {
	c := NewClassifier(slog.Default(), DefaultDetectors()...)
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "p", Namespace: "prod"},
		Status:     corev1.PodStatus{Phase: corev1.PodPending},
	}
	faults := c.DetectFaults("cluster-42", "prod", KindPod, pod)
	if len(faults) == 0 {
		t.Fatal("expected at least one fault")
	}
	for _, f := range faults {
		if f.Context[CtxClusterID] != "cluster-42" {
			t.Errorf("clusterId = %q, want cluster-42", f.Context[CtxClusterID])
		}
	}
}

func TestClassifier_KindDispatch(t *testing.T) {
	c := NewClassifier(slog.Default(), DefaultDetectors()...)
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "n1"}}
	// A node with no conditions yields NODE_NOT_READY; pod detectors must not run.
	faults := c.DetectFaults("c1", "", KindNode, node)
	if len(faults) != 1 || faults[0].Type != TypeNodeNotReady {
		t.Fatalf("want one NODE_NOT_READY fault, got %v", faults)
	}
}

func TestFilterBySeverity(t *testing.T) {
	faults := []Info{
		{Type: TypeCrashLoopBackOff, Severity: SeverityCritical},
		{Type: TypePending, Severity: SeverityHigh},
		{Type: TypeReadinessProbeFailed, Severity: SeverityMedium},
		{Type: TypeUnknown, Severity: SeverityLow},
	}
	got := FilterBySeverity(faults, SeverityHigh)
	if len(got) != 2 {
		t.Fatalf("got %d faults, want 2 (CRITICAL + HIGH)", len(got))
	}
	for _, f := range got {
		if f.Severity > SeverityHigh {
			t.Errorf("fault %s with severity %v should have been filtered", f.Type, f.Severity)
		}
	}
}

func TestGroupBySeverity(t *testing.T) {
	faults := []Info{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityMedium},
	}
	groups := GroupBySeverity(faults)
	if len(groups[SeverityCritical]) != 2 || len(groups[SeverityMedium]) != 1 {
		t.Errorf("groups = %v", groups)
	}
}

func TestStatistics(t *testing.T) {
	faults := []Info{
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
		{Severity: SeverityLow},
	}
	s := Statistics(faults)
	if s.Total != 5 || s.Critical != 1 || s.High != 2 || s.Medium != 1 || s.Low != 1 {
		t.Errorf("Statistics() = %+v", s)
	}
}

func TestDefaultDetectors_CoverAllKinds(t *testing.T) {
	kinds := []string{KindPod, KindDeployment, KindStatefulSet, KindDaemonSet,
		KindReplicaSet, KindJob, KindCronJob, KindNode}
	detectors := DefaultDetectors()
	for _, kind := range kinds {
		covered := false
		for _, d := range detectors {
			if d.CanDetect(kind) {
				covered = true
				break
			}
		}
		if !covered {
			t.Errorf("no detector covers kind %s", kind)
		}
	}
}
