package fault

import (
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
)

// JobFailedDetector fires for jobs that have failed pods or a Failed
// condition without having completed.
type JobFailedDetector struct{}

func (d *JobFailedDetector) Type() Type { return TypeJobFailed }

func (d *JobFailedDetector) CanDetect(kind string) bool { return kind == KindJob }

func (d *JobFailedDetector) Detect(clusterID, namespace string, obj any) []Info {
	job, ok := obj.(*batchv1.Job)
	if !ok {
		return nil
	}

	var failedCond *batchv1.JobCondition
	for i, cond := range job.Status.Conditions {
		if cond.Type == batchv1.JobComplete && cond.Status == corev1.ConditionTrue {
			return nil
		}
		if cond.Type == batchv1.JobFailed && cond.Status == corev1.ConditionTrue {
			failedCond = &job.Status.Conditions[i]
		}
	}
	if failedCond == nil && job.Status.Failed == 0 {
		return nil
	}

	reason, message := "", ""
	if failedCond != nil {
		reason, message = failedCond.Reason, failedCond.Message
	}

	info := newInfo(TypeJobFailed, SeverityHigh, KindJob, namespace, job.Name,
		fmt.Sprintf("Job %s has failed", job.Name),
		fmt.Sprintf("Job %s/%s has %d failed pods and has not completed. %s",
			namespace, job.Name, job.Status.Failed, message))

	info.Context[CtxFailedCount] = itoa(job.Status.Failed)
	info.Context[CtxSucceededCount] = itoa(job.Status.Succeeded)
	if job.Spec.BackoffLimit != nil {
		info.Context[CtxBackoffLimit] = itoa(*job.Spec.BackoffLimit)
	}
	if job.Spec.Completions != nil {
		info.Context[CtxCompletions] = itoa(*job.Spec.Completions)
	}
	if job.Spec.Parallelism != nil {
		info.Context[CtxParallelism] = itoa(*job.Spec.Parallelism)
	}
	if job.Spec.ActiveDeadlineSeconds != nil {
		info.Context[CtxActiveDeadlineSeconds] = fmt.Sprintf("%d", *job.Spec.ActiveDeadlineSeconds)
	}
	info.Context[CtxRestartPolicy] = string(job.Spec.Template.Spec.RestartPolicy)
	info.Context[CtxIssueCategory] = jobFailureCategory(reason, message)

	if reason != "" {
		info.Symptoms = append(info.Symptoms, fmt.Sprintf("Failed condition reason %s", reason))
	}
	if message != "" {
		info.Symptoms = append(info.Symptoms, message)
	}
	info.Symptoms = append(info.Symptoms, fmt.Sprintf("%d pods failed", job.Status.Failed))

	info.Context[CtxOwnerKind] = KindJob
	info.Context[CtxOwnerName] = job.Name

	return []Info{info}
}

// jobFailureCategory classifies the failure from the condition reason and
// message.
func jobFailureCategory(reason, message string) string {
	combined := reason + " " + message
	switch {
	case containsAny(combined, "backofflimit"):
		return "BACKOFF_LIMIT_EXCEEDED"
	case containsAny(combined, "deadline"):
		return "DEADLINE_EXCEEDED"
	case containsAny(combined, "oom"):
		return "OOM"
	case containsAny(combined, "image"):
		return "IMAGE_ERROR"
	default:
		return "EXECUTION_FAILED"
	}
}
