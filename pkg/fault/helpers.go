package fault

import (
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// asPod type-asserts a detector input into a pod, tolerating both pointer and
// value shapes.
func asPod(obj any) *corev1.Pod {
	switch v := obj.(type) {
	case *corev1.Pod:
		return v
	case corev1.Pod:
		return &v
	default:
		return nil
	}
}

// containerSpec finds the spec for a named container, searching regular then
// init containers.
func containerSpec(pod *corev1.Pod, name string) *corev1.Container {
	for i := range pod.Spec.Containers {
		if pod.Spec.Containers[i].Name == name {
			return &pod.Spec.Containers[i]
		}
	}
	for i := range pod.Spec.InitContainers {
		if pod.Spec.InitContainers[i].Name == name {
			return &pod.Spec.InitContainers[i]
		}
	}
	return nil
}

func hasLivenessProbe(c *corev1.Container) bool {
	return c != nil && c.LivenessProbe != nil
}

func hasStartupProbe(c *corev1.Container) bool {
	return c != nil && c.StartupProbe != nil
}

func hasReadinessProbe(c *corev1.Container) bool {
	return c != nil && c.ReadinessProbe != nil
}

// probeContext copies probe tuning values into the fault context.
func probeContext(ctx map[string]string, p *corev1.Probe) {
	if p == nil {
		return
	}
	ctx[CtxFailureThreshold] = itoa(p.FailureThreshold)
	ctx[CtxPeriodSeconds] = itoa(p.PeriodSeconds)
	ctx[CtxTimeoutSeconds] = itoa(p.TimeoutSeconds)
	ctx[CtxInitialDelaySeconds] = itoa(p.InitialDelaySeconds)
}

func itoa(i int32) string {
	return strconv.Itoa(int(i))
}

// containsAny reports whether the lowercased haystack contains any needle.
// Needles must already be lowercase.
func containsAny(s string, needles ...string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
