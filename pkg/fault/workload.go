package fault

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
)

// DeploymentUnavailableDetector fires when a Deployment has fewer available
// replicas than desired.
type DeploymentUnavailableDetector struct{}

func (d *DeploymentUnavailableDetector) Type() Type { return TypeDeploymentUnavailable }

func (d *DeploymentUnavailableDetector) CanDetect(kind string) bool { return kind == KindDeployment }

func (d *DeploymentUnavailableDetector) Detect(clusterID, namespace string, obj any) []Info {
	dep, ok := obj.(*appsv1.Deployment)
	if !ok {
		return nil
	}

	desired := int32(1)
	if dep.Spec.Replicas != nil {
		desired = *dep.Spec.Replicas
	}
	available := dep.Status.AvailableReplicas
	if available >= desired {
		return nil
	}

	info := newInfo(TypeDeploymentUnavailable, SeverityHigh, KindDeployment, namespace, dep.Name,
		fmt.Sprintf("Deployment %s has %d/%d available replicas", dep.Name, available, desired),
		fmt.Sprintf("Deployment %s/%s wants %d replicas but only %d are available (%d ready).",
			namespace, dep.Name, desired, available, dep.Status.ReadyReplicas))

	info.Context["desired"] = itoa(desired)
	info.Context["available"] = itoa(available)
	info.Context["ready"] = itoa(dep.Status.ReadyReplicas)
	info.Context[CtxOwnerKind] = KindDeployment
	info.Context[CtxOwnerName] = dep.Name

	info.Symptoms = append(info.Symptoms,
		fmt.Sprintf("availableReplicas %d < desired %d", available, desired))
	for _, cond := range dep.Status.Conditions {
		if cond.Type == appsv1.DeploymentAvailable && cond.Status != "True" {
			info.Symptoms = append(info.Symptoms, fmt.Sprintf("Available=False: %s", cond.Message))
		}
	}

	return []Info{info}
}

// StatefulSetUnavailableDetector fires when a StatefulSet has fewer ready
// replicas than desired. StatefulSets start pods in ordinal order, so the
// hint names the first not-ready ordinal.
type StatefulSetUnavailableDetector struct{}

func (d *StatefulSetUnavailableDetector) Type() Type { return TypeDeploymentUnavailable }

func (d *StatefulSetUnavailableDetector) CanDetect(kind string) bool { return kind == KindStatefulSet }

func (d *StatefulSetUnavailableDetector) Detect(clusterID, namespace string, obj any) []Info {
	sts, ok := obj.(*appsv1.StatefulSet)
	if !ok {
		return nil
	}

	desired := int32(1)
	if sts.Spec.Replicas != nil {
		desired = *sts.Spec.Replicas
	}
	ready := sts.Status.ReadyReplicas
	if ready >= desired {
		return nil
	}

	info := newInfo(TypeDeploymentUnavailable, SeverityHigh, KindStatefulSet, namespace, sts.Name,
		fmt.Sprintf("StatefulSet %s has %d/%d ready replicas", sts.Name, ready, desired),
		fmt.Sprintf("StatefulSet %s/%s wants %d replicas but only %d are ready.",
			namespace, sts.Name, desired, ready))

	info.Context["desired"] = itoa(desired)
	info.Context["ready"] = itoa(ready)
	info.Context[CtxOwnerKind] = KindStatefulSet
	info.Context[CtxOwnerName] = sts.Name

	info.Symptoms = append(info.Symptoms,
		fmt.Sprintf("readyReplicas %d < desired %d", ready, desired))
	if ready > 0 {
		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("%s-0..%s-%d are ready; %s-%d is the first blocked ordinal",
				sts.Name, sts.Name, ready-1, sts.Name, ready))
	} else {
		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("%s-0 is the first blocked ordinal", sts.Name))
	}

	return []Info{info}
}

// DaemonSetUnavailableDetector fires when a DaemonSet is not ready on every
// scheduled node.
type DaemonSetUnavailableDetector struct{}

func (d *DaemonSetUnavailableDetector) Type() Type { return TypeDeploymentUnavailable }

func (d *DaemonSetUnavailableDetector) CanDetect(kind string) bool { return kind == KindDaemonSet }

func (d *DaemonSetUnavailableDetector) Detect(clusterID, namespace string, obj any) []Info {
	ds, ok := obj.(*appsv1.DaemonSet)
	if !ok {
		return nil
	}

	desired := ds.Status.DesiredNumberScheduled
	ready := ds.Status.NumberReady
	if ready >= desired {
		return nil
	}

	info := newInfo(TypeDeploymentUnavailable, SeverityHigh, KindDaemonSet, namespace, ds.Name,
		fmt.Sprintf("DaemonSet %s is ready on %d/%d nodes", ds.Name, ready, desired),
		fmt.Sprintf("DaemonSet %s/%s should run on %d nodes but is only ready on %d.",
			namespace, ds.Name, desired, ready))

	info.Context["desired"] = itoa(desired)
	info.Context["ready"] = itoa(ready)
	info.Context[CtxOwnerKind] = KindDaemonSet
	info.Context[CtxOwnerName] = ds.Name

	info.Symptoms = append(info.Symptoms,
		fmt.Sprintf("numberReady %d < desiredNumberScheduled %d", ready, desired))
	if ds.Status.NumberMisscheduled > 0 {
		info.Context["misscheduled"] = itoa(ds.Status.NumberMisscheduled)
		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("%d pods are misscheduled", ds.Status.NumberMisscheduled))
	}

	return []Info{info}
}

// ReplicaSetUnavailableDetector fires for standalone ReplicaSets that are
// short on ready replicas. ReplicaSets owned by a Deployment are skipped —
// the Deployment detector reports those.
type ReplicaSetUnavailableDetector struct{}

func (d *ReplicaSetUnavailableDetector) Type() Type { return TypeDeploymentUnavailable }

func (d *ReplicaSetUnavailableDetector) CanDetect(kind string) bool { return kind == KindReplicaSet }

func (d *ReplicaSetUnavailableDetector) Detect(clusterID, namespace string, obj any) []Info {
	rs, ok := obj.(*appsv1.ReplicaSet)
	if !ok {
		return nil
	}

	for _, ref := range rs.OwnerReferences {
		if ref.Kind == KindDeployment {
			return nil
		}
	}

	desired := int32(1)
	if rs.Spec.Replicas != nil {
		desired = *rs.Spec.Replicas
	}
	ready := rs.Status.ReadyReplicas
	if ready >= desired {
		return nil
	}

	info := newInfo(TypeDeploymentUnavailable, SeverityHigh, KindReplicaSet, namespace, rs.Name,
		fmt.Sprintf("ReplicaSet %s has %d/%d ready replicas", rs.Name, ready, desired),
		fmt.Sprintf("Standalone ReplicaSet %s/%s wants %d replicas but only %d are ready.",
			namespace, rs.Name, desired, ready))

	info.Context["desired"] = itoa(desired)
	info.Context["ready"] = itoa(ready)
	info.Context[CtxOwnerKind] = KindReplicaSet
	info.Context[CtxOwnerName] = rs.Name

	info.Symptoms = append(info.Symptoms,
		fmt.Sprintf("readyReplicas %d < desired %d", ready, desired))

	return []Info{info}
}
