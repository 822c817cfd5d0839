package fault

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// pressureCategories maps node pressure condition types to issue categories.
var pressureCategories = map[corev1.NodeConditionType]string{
	corev1.NodeMemoryPressure:     "MEMORY_PRESSURE",
	corev1.NodeDiskPressure:       "DISK_PRESSURE",
	corev1.NodePIDPressure:        "PID_PRESSURE",
	corev1.NodeNetworkUnavailable: "NETWORK_UNAVAILABLE",
}

// pressureOrder fixes the emission order for pressure faults.
var pressureOrder = []corev1.NodeConditionType{
	corev1.NodeMemoryPressure,
	corev1.NodeDiskPressure,
	corev1.NodePIDPressure,
	corev1.NodeNetworkUnavailable,
}

// NodeConditionDetector emits NODE_NOT_READY when the node has no Ready=True
// condition, and one NODE_PRESSURE fault per active pressure condition. Both
// can fire for the same node.
type NodeConditionDetector struct{}

func (d *NodeConditionDetector) Type() Type { return TypeNodeNotReady }

func (d *NodeConditionDetector) CanDetect(kind string) bool { return kind == KindNode }

func (d *NodeConditionDetector) Detect(clusterID, namespace string, obj any) []Info {
	node, ok := obj.(*corev1.Node)
	if !ok {
		return nil
	}

	var faults []Info

	ready := false
	var readyMessage string
	conditions := make(map[corev1.NodeConditionType]corev1.NodeCondition, len(node.Status.Conditions))
	for _, cond := range node.Status.Conditions {
		conditions[cond.Type] = cond
		if cond.Type == corev1.NodeReady {
			ready = cond.Status == corev1.ConditionTrue
			readyMessage = cond.Message
		}
	}

	if !ready {
		info := newInfo(TypeNodeNotReady, SeverityCritical, KindNode, "", node.Name,
			fmt.Sprintf("Node %s is not Ready", node.Name),
			fmt.Sprintf("Node %s has no Ready=True condition; workloads on it may be unreachable. %s",
				node.Name, readyMessage))
		info.Context[CtxNodeName] = node.Name
		if readyMessage != "" {
			info.Symptoms = append(info.Symptoms, readyMessage)
		}
		info.Symptoms = append(info.Symptoms, "Ready condition is not True")
		faults = append(faults, info)
	}

	for _, condType := range pressureOrder {
		cond, ok := conditions[condType]
		if !ok || cond.Status != corev1.ConditionTrue {
			continue
		}
		info := newInfo(TypeNodePressure, SeverityHigh, KindNode, "", node.Name,
			fmt.Sprintf("Node %s reports %s", node.Name, condType),
			fmt.Sprintf("Node %s has condition %s=True: %s", node.Name, condType, cond.Message))
		info.Context[CtxNodeName] = node.Name
		info.Context[CtxIssueCategory] = pressureCategories[condType]
		if cond.Message != "" {
			info.Symptoms = append(info.Symptoms, cond.Message)
		}
		info.Symptoms = append(info.Symptoms, fmt.Sprintf("%s condition is True", condType))
		faults = append(faults, info)
	}

	return faults
}
