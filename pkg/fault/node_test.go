package fault

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func nodeWithConditions(conds ...corev1.NodeCondition) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: "worker-1"},
		Status:     corev1.NodeStatus{Conditions: conds},
	}
}

func TestNode_DiskPressureWithReadyTrue(t *testing.T) {
	node := nodeWithConditions(
		corev1.NodeCondition{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
		corev1.NodeCondition{Type: corev1.NodeDiskPressure, Status: corev1.ConditionTrue, Message: "kubelet has disk pressure"},
	)

	d := &NodeConditionDetector{}
	faults := d.Detect("c1", "", node)
	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1", len(faults))
	}
	f := faults[0]
	if f.Type != TypeNodePressure {
		t.Errorf("Type = %s, want NODE_PRESSURE (no NODE_NOT_READY for a Ready node)", f.Type)
	}
	if f.Severity != SeverityHigh {
		t.Errorf("Severity = %v, want HIGH", f.Severity)
	}
	if got := f.Context[CtxIssueCategory]; got != "DISK_PRESSURE" {
		t.Errorf("issueCategory = %q, want DISK_PRESSURE", got)
	}
	if f.Namespace != "" {
		t.Errorf("Namespace = %q, want empty for cluster-scoped node", f.Namespace)
	}
}

func TestNode_NotReadyAndMemoryPressure(t *testing.T) {
	node := nodeWithConditions(
		corev1.NodeCondition{Type: corev1.NodeReady, Status: corev1.ConditionFalse, Message: "kubelet stopped posting node status"},
		corev1.NodeCondition{Type: corev1.NodeMemoryPressure, Status: corev1.ConditionTrue},
	)

	d := &NodeConditionDetector{}
	faults := d.Detect("c1", "", node)
	if len(faults) != 2 {
		t.Fatalf("got %d faults, want 2", len(faults))
	}
	if faults[0].Type != TypeNodeNotReady || faults[0].Severity != SeverityCritical {
		t.Errorf("first fault = (%s, %v), want (NODE_NOT_READY, CRITICAL)", faults[0].Type, faults[0].Severity)
	}
	if faults[1].Type != TypeNodePressure || faults[1].Context[CtxIssueCategory] != "MEMORY_PRESSURE" {
		t.Errorf("second fault = (%s, %q)", faults[1].Type, faults[1].Context[CtxIssueCategory])
	}
}

func TestNode_NoReadyConditionAtAll(t *testing.T) {
	node := nodeWithConditions()
	d := &NodeConditionDetector{}
	faults := d.Detect("c1", "", node)
	if len(faults) != 1 || faults[0].Type != TypeNodeNotReady {
		t.Fatalf("want one NODE_NOT_READY fault, got %v", faults)
	}
}

func TestNode_HealthyNoFaults(t *testing.T) {
	node := nodeWithConditions(
		corev1.NodeCondition{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
		corev1.NodeCondition{Type: corev1.NodeDiskPressure, Status: corev1.ConditionFalse},
	)
	d := &NodeConditionDetector{}
	if faults := d.Detect("c1", "", node); len(faults) != 0 {
		t.Errorf("got %d faults for healthy node, want 0", len(faults))
	}
}
