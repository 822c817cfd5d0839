package fault

import (
	"fmt"
)

// OOMKilledDetector fires when a container's last termination was an OOM
// kill. It may overlap with CrashLoopBackOffDetector for the same container;
// the scan layer deduplicates per resource afterwards.
type OOMKilledDetector struct{}

func (d *OOMKilledDetector) Type() Type { return TypeOOMKilled }

func (d *OOMKilledDetector) CanDetect(kind string) bool { return kind == KindPod }

func (d *OOMKilledDetector) Detect(clusterID, namespace string, obj any) []Info {
	pod := asPod(obj)
	if pod == nil {
		return nil
	}

	var faults []Info
	for _, cs := range pod.Status.ContainerStatuses {
		term := cs.LastTerminationState.Terminated
		if term == nil || term.Reason != "OOMKilled" {
			continue
		}

		info := newInfo(TypeOOMKilled, SeverityCritical, KindPod, namespace, pod.Name,
			fmt.Sprintf("Container %s was OOMKilled", cs.Name),
			fmt.Sprintf("Container %s in pod %s/%s was killed by the kernel OOM killer after exceeding its memory limit.",
				cs.Name, namespace, pod.Name))

		info.Context[CtxContainerName] = cs.Name
		info.Context[CtxImage] = cs.Image
		info.Context[CtxExitCode] = itoa(term.ExitCode)
		info.Context[CtxTerminationReason] = term.Reason
		info.Context[CtxRestartCount] = itoa(cs.RestartCount)
		info.Context[CtxIssueCategory] = "OOM_KILLED"

		if spec := containerSpec(pod, cs.Name); spec != nil {
			if lim, ok := spec.Resources.Limits["memory"]; ok {
				info.Symptoms = append(info.Symptoms, fmt.Sprintf("memory limit %s", lim.String()))
			}
		}
		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("last termination reason OOMKilled, exit code %d", term.ExitCode),
			fmt.Sprintf("container restarted %d times", cs.RestartCount),
		)

		applyOwner(&info, pod)
		faults = append(faults, info)
	}
	return faults
}
