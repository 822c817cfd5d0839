package fault

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func livenessRestartPod(exitCode int32, termReason string, waitingReason string) *corev1.Pod {
	cs := corev1.ContainerStatus{
		Name:         "app",
		RestartCount: 3,
		LastTerminationState: corev1.ContainerState{
			Terminated: &corev1.ContainerStateTerminated{ExitCode: exitCode, Reason: termReason},
		},
	}
	if waitingReason != "" {
		cs.State = corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: waitingReason}}
	} else {
		cs.State = corev1.ContainerState{Running: &corev1.ContainerStateRunning{}}
	}
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "app-0", Namespace: "prod"},
		Spec: corev1.PodSpec{Containers: []corev1.Container{{
			Name:          "app",
			LivenessProbe: &corev1.Probe{FailureThreshold: 3, PeriodSeconds: 10, TimeoutSeconds: 1, InitialDelaySeconds: 5},
		}}},
		Status: corev1.PodStatus{
			Phase:             corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{cs},
		},
	}
}

func TestLivenessProbe_RestartedRunningContainer(t *testing.T) {
	d := &LivenessProbeDetector{}
	faults := d.Detect("c1", "prod", livenessRestartPod(137, "", ""))
	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1", len(faults))
	}
	f := faults[0]
	if f.Type != TypeLivenessProbeFailed || f.Severity != SeverityHigh {
		t.Errorf("got (%s, %v)", f.Type, f.Severity)
	}
	if got := f.Context[CtxFailureThreshold]; got != "3" {
		t.Errorf("failureThreshold = %q, want 3", got)
	}
}

func TestLivenessProbe_SkipsCrashLoopContainers(t *testing.T) {
	// Exclusion property: while a container is in CrashLoopBackOff, the
	// CrashLoopBackOff detector wins and this one stays silent.
	d := &LivenessProbeDetector{}
	if faults := d.Detect("c1", "prod", livenessRestartPod(137, "", "CrashLoopBackOff")); len(faults) != 0 {
		t.Errorf("got %d faults for CrashLoopBackOff container, want 0", len(faults))
	}
}

func TestLivenessProbe_SkipsOOMKills(t *testing.T) {
	d := &LivenessProbeDetector{}
	if faults := d.Detect("c1", "prod", livenessRestartPod(137, "OOMKilled", "")); len(faults) != 0 {
		t.Errorf("got %d faults for OOM-killed container, want 0", len(faults))
	}
}

func TestLivenessProbe_IgnoresOtherExitCodes(t *testing.T) {
	d := &LivenessProbeDetector{}
	if faults := d.Detect("c1", "prod", livenessRestartPod(1, "", "")); len(faults) != 0 {
		t.Errorf("got %d faults for exit 1, want 0", len(faults))
	}
}

func TestReadinessProbe_RunningNotReady(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "prod"},
		Spec: corev1.PodSpec{Containers: []corev1.Container{{
			Name:           "api",
			ReadinessProbe: &corev1.Probe{FailureThreshold: 3},
		}}},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{{
				Name:  "api",
				Ready: false,
				State: corev1.ContainerState{Running: &corev1.ContainerStateRunning{}},
			}},
		},
	}
	d := &ReadinessProbeDetector{}
	faults := d.Detect("c1", "prod", pod)
	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1", len(faults))
	}
	if faults[0].Severity != SeverityMedium {
		t.Errorf("Severity = %v, want MEDIUM", faults[0].Severity)
	}
}

func TestReadinessProbe_NoProbeNoFault(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "prod"},
		Spec:       corev1.PodSpec{Containers: []corev1.Container{{Name: "api"}}},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{{
				Name:  "api",
				Ready: false,
				State: corev1.ContainerState{Running: &corev1.ContainerStateRunning{}},
			}},
		},
	}
	d := &ReadinessProbeDetector{}
	if faults := d.Detect("c1", "prod", pod); len(faults) != 0 {
		t.Errorf("got %d faults without a readiness probe, want 0", len(faults))
	}
}

func TestStartupProbe_NeverStarted(t *testing.T) {
	started := false
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "slow-0", Namespace: "prod"},
		Spec: corev1.PodSpec{Containers: []corev1.Container{{
			Name:         "slow",
			StartupProbe: &corev1.Probe{FailureThreshold: 30, PeriodSeconds: 5},
		}}},
		Status: corev1.PodStatus{
			ContainerStatuses: []corev1.ContainerStatus{{
				Name:         "slow",
				Started:      &started,
				RestartCount: 4,
				State:        corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"}},
			}},
		},
	}
	d := &StartupProbeDetector{}
	faults := d.Detect("c1", "prod", pod)
	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1", len(faults))
	}
	if faults[0].Type != TypeStartupProbeFailed || faults[0].Severity != SeverityHigh {
		t.Errorf("got (%s, %v)", faults[0].Type, faults[0].Severity)
	}
}
