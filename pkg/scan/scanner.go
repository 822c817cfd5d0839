// Package scan walks a cluster's workloads through the fault classifier and
// deduplicates the findings per resource.
package scan

import (
	"context"
	"log/slog"

	"github.com/wisbric/kubeowl/internal/telemetry"
	"github.com/wisbric/kubeowl/pkg/fault"
	"github.com/wisbric/kubeowl/pkg/kube"
)

// Scanner runs fault detection across a cluster or namespace snapshot.
type Scanner struct {
	accessor   *kube.Accessor
	classifier *fault.Classifier
	logger     *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(accessor *kube.Accessor, classifier *fault.Classifier, logger *slog.Logger) *Scanner {
	return &Scanner{accessor: accessor, classifier: classifier, logger: logger}
}

// ScanCluster walks every workload kind across all namespaces, plus nodes.
// Emission order is deterministic: kind order below, API resource order,
// detector registration order.
func (s *Scanner) ScanCluster(ctx context.Context, clusterID string) ([]fault.Info, error) {
	faults, err := s.scanWorkloads(ctx, clusterID, "")
	if err != nil {
		return nil, err
	}

	nodes, err := s.accessor.ListNodes(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		faults = append(faults, s.classifier.DetectFaults(clusterID, "", fault.KindNode, &nodes[i])...)
	}

	s.record("cluster", faults)
	return faults, nil
}

// ScanNamespace walks the workload kinds within one namespace. Nodes are
// cluster-scoped and excluded.
func (s *Scanner) ScanNamespace(ctx context.Context, clusterID, namespace string) ([]fault.Info, error) {
	faults, err := s.scanWorkloads(ctx, clusterID, namespace)
	if err != nil {
		return nil, err
	}
	s.record("namespace", faults)
	return faults, nil
}

// scanWorkloads runs the namespace-scoped kinds in fixed order.
func (s *Scanner) scanWorkloads(ctx context.Context, clusterID, namespace string) ([]fault.Info, error) {
	var faults []fault.Info

	pods, err := s.accessor.ListPods(ctx, clusterID, namespace)
	if err != nil {
		return nil, err
	}
	for i := range pods {
		faults = append(faults, s.classifier.DetectFaults(clusterID, pods[i].Namespace, fault.KindPod, &pods[i])...)
	}

	deployments, err := s.accessor.ListDeployments(ctx, clusterID, namespace)
	if err != nil {
		return nil, err
	}
	for i := range deployments {
		faults = append(faults, s.classifier.DetectFaults(clusterID, deployments[i].Namespace, fault.KindDeployment, &deployments[i])...)
	}

	daemonSets, err := s.accessor.ListDaemonSets(ctx, clusterID, namespace)
	if err != nil {
		return nil, err
	}
	for i := range daemonSets {
		faults = append(faults, s.classifier.DetectFaults(clusterID, daemonSets[i].Namespace, fault.KindDaemonSet, &daemonSets[i])...)
	}

	statefulSets, err := s.accessor.ListStatefulSets(ctx, clusterID, namespace)
	if err != nil {
		return nil, err
	}
	for i := range statefulSets {
		faults = append(faults, s.classifier.DetectFaults(clusterID, statefulSets[i].Namespace, fault.KindStatefulSet, &statefulSets[i])...)
	}

	replicaSets, err := s.accessor.ListReplicaSets(ctx, clusterID, namespace)
	if err != nil {
		return nil, err
	}
	for i := range replicaSets {
		faults = append(faults, s.classifier.DetectFaults(clusterID, replicaSets[i].Namespace, fault.KindReplicaSet, &replicaSets[i])...)
	}

	jobs, err := s.accessor.ListJobs(ctx, clusterID, namespace)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		faults = append(faults, s.classifier.DetectFaults(clusterID, jobs[i].Namespace, fault.KindJob, &jobs[i])...)
	}

	cronJobs, err := s.accessor.ListCronJobs(ctx, clusterID, namespace)
	if err != nil {
		return nil, err
	}
	for i := range cronJobs {
		faults = append(faults, s.classifier.DetectFaults(clusterID, cronJobs[i].Namespace, fault.KindCronJob, &cronJobs[i])...)
	}

	return faults, nil
}

func (s *Scanner) record(scope string, faults []fault.Info) {
	telemetry.ScansTotal.WithLabelValues(scope).Inc()
	for _, f := range faults {
		telemetry.FaultsDetectedTotal.WithLabelValues(string(f.Type), f.Severity.String()).Inc()
	}
}

// Dedupe keeps one fault per (namespace, kind, name): the most severe one,
// ties broken by earlier emission order. First-occurrence order is preserved.
func Dedupe(faults []fault.Info) []fault.Info {
	type key struct {
		namespace string
		kind      string
		name      string
	}

	var out []fault.Info
	index := make(map[key]int)
	for _, f := range faults {
		k := key{f.Namespace, f.ResourceKind, f.ResourceName}
		if i, seen := index[k]; seen {
			if f.Severity < out[i].Severity {
				out[i] = f
			}
			continue
		}
		index[k] = len(out)
		out = append(out, f)
	}
	return out
}
