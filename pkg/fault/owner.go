package fault

import (
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// OwnerOf resolves the controlling workload of a pod from its first owner
// reference. Pods without an owner are their own owner. ReplicaSets are
// promoted to their Deployment, with the generated hash suffix stripped from
// the name.
func OwnerOf(pod *corev1.Pod) (kind, name string) {
	refs := pod.OwnerReferences
	if len(refs) == 0 {
		return KindPod, pod.Name
	}

	ref := refs[0]
	if ref.Kind == KindReplicaSet {
		return KindDeployment, stripHashSuffix(ref.Name)
	}
	return ref.Kind, ref.Name
}

// stripHashSuffix removes the pod-template hash segment after the last dash.
func stripHashSuffix(name string) string {
	idx := strings.LastIndex(name, "-")
	if idx <= 0 {
		return name
	}
	return name[:idx]
}

// applyOwner copies the resolved owner pair into the fault context.
func applyOwner(info *Info, pod *corev1.Pod) {
	kind, name := OwnerOf(pod)
	info.Context[CtxOwnerKind] = kind
	info.Context[CtxOwnerName] = name
}
