// Package kube is the read-only facade over per-cluster Kubernetes clients.
// It lists and retrieves workloads, events, and logs; it holds no business
// logic.
package kube

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/wisbric/kubeowl/internal/apperror"
	"github.com/wisbric/kubeowl/pkg/fault"
)

const (
	// maxLogLines caps any single log fetch.
	maxLogLines = 100

	// maxEvents caps event lists for a single object.
	maxEvents = 20
)

// ClientSource resolves a cluster id to a Kubernetes client. The cluster
// registry implements this.
type ClientSource interface {
	ClientFor(clusterID string) (kubernetes.Interface, error)
}

// Accessor exposes read-only resource access for registered clusters.
type Accessor struct {
	clients ClientSource
	cache   *ListCache
	logger  *slog.Logger
}

// NewAccessor creates an Accessor. cache may be nil to disable list caching.
func NewAccessor(clients ClientSource, cache *ListCache, logger *slog.Logger) *Accessor {
	return &Accessor{clients: clients, cache: cache, logger: logger}
}

// client resolves the cluster client or reports NOT_FOUND.
func (a *Accessor) client(clusterID string) (kubernetes.Interface, error) {
	cs, err := a.clients.ClientFor(clusterID)
	if err != nil {
		return nil, apperror.E(apperror.KindNotFound,
			fmt.Sprintf("cluster %s is not registered", clusterID), err)
	}
	return cs, nil
}

// wrapAPIError maps a Kubernetes API error onto the caller-facing taxonomy.
func wrapAPIError(err error, action string) error {
	if apierrors.IsNotFound(err) {
		return apperror.E(apperror.KindNotFound, action+": resource not found", err)
	}
	return apperror.E(apperror.KindClusterUnreachable, action+" failed", err)
}

// listCached returns the cached list for key if fresh, otherwise fetches and
// stores it. Cache failures silently degrade to a direct fetch.
func listCached[T any](ctx context.Context, a *Accessor, key string, fetch func() (T, error)) (T, error) {
	var zero T
	if a.cache == nil {
		return fetch()
	}
	var cached T
	if ok := a.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	out, err := fetch()
	if err != nil {
		return zero, err
	}
	a.cache.Set(ctx, key, out)
	return out, nil
}

func listKey(clusterID, kind, namespace string) string {
	return fmt.Sprintf("resource:list:%s:%s:%s", clusterID, kind, namespace)
}

// ListNamespaces returns all namespaces in the cluster.
func (a *Accessor) ListNamespaces(ctx context.Context, clusterID string) ([]corev1.Namespace, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, "Namespace", ""), func() ([]corev1.Namespace, error) {
		list, err := cs.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing namespaces")
		}
		return list.Items, nil
	})
}

// ListPods returns pods in the namespace, or across all namespaces when
// namespace is empty.
func (a *Accessor) ListPods(ctx context.Context, clusterID, namespace string) ([]corev1.Pod, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, fault.KindPod, namespace), func() ([]corev1.Pod, error) {
		list, err := cs.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing pods")
		}
		return list.Items, nil
	})
}

// GetPod returns a single pod. Gets are never cached.
func (a *Accessor) GetPod(ctx context.Context, clusterID, namespace, name string) (*corev1.Pod, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	pod, err := cs.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapAPIError(err, fmt.Sprintf("getting pod %s/%s", namespace, name))
	}
	return pod, nil
}

// ListDeployments returns deployments in the namespace (all when empty).
func (a *Accessor) ListDeployments(ctx context.Context, clusterID, namespace string) ([]appsv1.Deployment, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, fault.KindDeployment, namespace), func() ([]appsv1.Deployment, error) {
		list, err := cs.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing deployments")
		}
		return list.Items, nil
	})
}

// GetDeployment returns a single deployment.
func (a *Accessor) GetDeployment(ctx context.Context, clusterID, namespace, name string) (*appsv1.Deployment, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	dep, err := cs.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapAPIError(err, fmt.Sprintf("getting deployment %s/%s", namespace, name))
	}
	return dep, nil
}

// ListDaemonSets returns daemonsets in the namespace (all when empty).
func (a *Accessor) ListDaemonSets(ctx context.Context, clusterID, namespace string) ([]appsv1.DaemonSet, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, fault.KindDaemonSet, namespace), func() ([]appsv1.DaemonSet, error) {
		list, err := cs.AppsV1().DaemonSets(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing daemonsets")
		}
		return list.Items, nil
	})
}

// ListStatefulSets returns statefulsets in the namespace (all when empty).
func (a *Accessor) ListStatefulSets(ctx context.Context, clusterID, namespace string) ([]appsv1.StatefulSet, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, fault.KindStatefulSet, namespace), func() ([]appsv1.StatefulSet, error) {
		list, err := cs.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing statefulsets")
		}
		return list.Items, nil
	})
}

// ListReplicaSets returns replicasets in the namespace (all when empty).
func (a *Accessor) ListReplicaSets(ctx context.Context, clusterID, namespace string) ([]appsv1.ReplicaSet, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, fault.KindReplicaSet, namespace), func() ([]appsv1.ReplicaSet, error) {
		list, err := cs.AppsV1().ReplicaSets(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing replicasets")
		}
		return list.Items, nil
	})
}

// ListJobs returns jobs in the namespace (all when empty).
func (a *Accessor) ListJobs(ctx context.Context, clusterID, namespace string) ([]batchv1.Job, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, fault.KindJob, namespace), func() ([]batchv1.Job, error) {
		list, err := cs.BatchV1().Jobs(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing jobs")
		}
		return list.Items, nil
	})
}

// ListCronJobs returns cronjobs in the namespace (all when empty).
func (a *Accessor) ListCronJobs(ctx context.Context, clusterID, namespace string) ([]batchv1.CronJob, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, fault.KindCronJob, namespace), func() ([]batchv1.CronJob, error) {
		list, err := cs.BatchV1().CronJobs(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing cronjobs")
		}
		return list.Items, nil
	})
}

// ListNodes returns all nodes in the cluster.
func (a *Accessor) ListNodes(ctx context.Context, clusterID string) ([]corev1.Node, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	return listCached(ctx, a, listKey(clusterID, fault.KindNode, ""), func() ([]corev1.Node, error) {
		list, err := cs.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, wrapAPIError(err, "listing nodes")
		}
		return list.Items, nil
	})
}

// GetNode returns a single node.
func (a *Accessor) GetNode(ctx context.Context, clusterID, name string) (*corev1.Node, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	node, err := cs.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapAPIError(err, fmt.Sprintf("getting node %s", name))
	}
	return node, nil
}

// Logs returns the last tailLines lines of a container's log. Failures are
// logged and degrade to an empty string — log evidence is best-effort.
func (a *Accessor) Logs(ctx context.Context, clusterID, namespace, podName, container string, tailLines int64) string {
	cs, err := a.client(clusterID)
	if err != nil {
		a.logger.Warn("fetching logs: no client", "cluster_id", clusterID, "error", err)
		return ""
	}
	if tailLines <= 0 || tailLines > maxLogLines {
		tailLines = maxLogLines
	}
	opts := &corev1.PodLogOptions{TailLines: &tailLines}
	if container != "" {
		opts.Container = container
	}
	raw, err := cs.CoreV1().Pods(namespace).GetLogs(podName, opts).Do(ctx).Raw()
	if err != nil {
		a.logger.Warn("fetching logs failed",
			"cluster_id", clusterID, "pod", namespace+"/"+podName, "container", container, "error", err)
		return ""
	}
	return string(raw)
}

// EventsFor returns events involving the named object, newest first, capped
// at 20 entries.
func (a *Accessor) EventsFor(ctx context.Context, clusterID, namespace, kind, name string) ([]corev1.Event, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	selector := fmt.Sprintf("involvedObject.kind=%s,involvedObject.name=%s", kind, name)
	list, err := cs.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{FieldSelector: selector})
	if err != nil {
		return nil, wrapAPIError(err, fmt.Sprintf("listing events for %s %s/%s", kind, namespace, name))
	}

	events := list.Items
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].LastTimestamp.After(events[j].LastTimestamp.Time)
	})
	if len(events) > maxEvents {
		events = events[:maxEvents]
	}
	return events, nil
}

// ListEventsInNamespace returns up to limit events from the namespace.
func (a *Accessor) ListEventsInNamespace(ctx context.Context, clusterID, namespace string, limit int64) ([]corev1.Event, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	list, err := cs.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{Limit: limit})
	if err != nil {
		return nil, wrapAPIError(err, "listing namespace events")
	}
	return list.Items, nil
}

// LogsForJob finds the most recently created pod of a job and returns up to
// 100 lines of its log.
func (a *Accessor) LogsForJob(ctx context.Context, clusterID, namespace, jobName string) string {
	cs, err := a.client(clusterID)
	if err != nil {
		a.logger.Warn("fetching job logs: no client", "cluster_id", clusterID, "error", err)
		return ""
	}
	list, err := cs.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: "job-name=" + jobName,
	})
	if err != nil || len(list.Items) == 0 {
		if err != nil {
			a.logger.Warn("listing job pods failed", "job", namespace+"/"+jobName, "error", err)
		}
		return ""
	}

	newest := list.Items[0]
	for _, pod := range list.Items[1:] {
		if pod.CreationTimestamp.After(newest.CreationTimestamp.Time) {
			newest = pod
		}
	}
	return a.Logs(ctx, clusterID, namespace, newest.Name, "", maxLogLines)
}

// ListByKind lists resources of a workload kind for the generic browse API.
func (a *Accessor) ListByKind(ctx context.Context, clusterID, kind, namespace string) (any, error) {
	switch kind {
	case fault.KindPod:
		return a.ListPods(ctx, clusterID, namespace)
	case fault.KindDeployment:
		return a.ListDeployments(ctx, clusterID, namespace)
	case fault.KindDaemonSet:
		return a.ListDaemonSets(ctx, clusterID, namespace)
	case fault.KindStatefulSet:
		return a.ListStatefulSets(ctx, clusterID, namespace)
	case fault.KindReplicaSet:
		return a.ListReplicaSets(ctx, clusterID, namespace)
	case fault.KindJob:
		return a.ListJobs(ctx, clusterID, namespace)
	case fault.KindCronJob:
		return a.ListCronJobs(ctx, clusterID, namespace)
	case fault.KindNode:
		return a.ListNodes(ctx, clusterID)
	case "Namespace":
		return a.ListNamespaces(ctx, clusterID)
	default:
		return nil, apperror.Errorf(apperror.KindValidationFailed, "unsupported resource kind %q", kind)
	}
}

// GetByKind retrieves one resource of a workload kind for the browse API.
func (a *Accessor) GetByKind(ctx context.Context, clusterID, kind, namespace, name string) (any, error) {
	cs, err := a.client(clusterID)
	if err != nil {
		return nil, err
	}
	action := fmt.Sprintf("getting %s %s", strings.ToLower(kind), name)
	switch kind {
	case fault.KindPod:
		return a.GetPod(ctx, clusterID, namespace, name)
	case fault.KindDeployment:
		return a.GetDeployment(ctx, clusterID, namespace, name)
	case fault.KindDaemonSet:
		out, err := cs.AppsV1().DaemonSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, wrapAPIError(err, action)
		}
		return out, nil
	case fault.KindStatefulSet:
		out, err := cs.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, wrapAPIError(err, action)
		}
		return out, nil
	case fault.KindReplicaSet:
		out, err := cs.AppsV1().ReplicaSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, wrapAPIError(err, action)
		}
		return out, nil
	case fault.KindJob:
		out, err := cs.BatchV1().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, wrapAPIError(err, action)
		}
		return out, nil
	case fault.KindCronJob:
		out, err := cs.BatchV1().CronJobs(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, wrapAPIError(err, action)
		}
		return out, nil
	case fault.KindNode:
		return a.GetNode(ctx, clusterID, name)
	default:
		return nil, apperror.Errorf(apperror.KindValidationFailed, "unsupported resource kind %q", kind)
	}
}
