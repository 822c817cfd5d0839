package fault

import (
	"fmt"
	"time"

	batchv1 "k8s.io/api/batch/v1"
)

const (
	// scheduleStaleAfter is how old the last schedule time may be before a
	// CronJob counts as stale.
	scheduleStaleAfter = 24 * time.Hour

	// neverScheduledGrace is how long a freshly created CronJob may sit
	// without any schedule before it counts as stale.
	neverScheduledGrace = time.Hour
)

// CronJobFailedDetector emits up to three distinct faults for one CronJob:
// suspended, too many concurrent actives under Forbid, and a stale schedule.
type CronJobFailedDetector struct {
	now func() time.Time
}

func (d *CronJobFailedDetector) Type() Type { return TypeCronJobFailed }

func (d *CronJobFailedDetector) CanDetect(kind string) bool { return kind == KindCronJob }

func (d *CronJobFailedDetector) Detect(clusterID, namespace string, obj any) []Info {
	cj, ok := obj.(*batchv1.CronJob)
	if !ok {
		return nil
	}

	nowFn := d.now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()

	var faults []Info

	if cj.Spec.Suspend != nil && *cj.Spec.Suspend {
		info := d.base(cj, namespace, SeverityMedium,
			fmt.Sprintf("CronJob %s is suspended", cj.Name),
			fmt.Sprintf("CronJob %s/%s has spec.suspend=true and will not create new jobs.", namespace, cj.Name))
		info.Context[CtxIssueCategory] = "SUSPENDED"
		info.Symptoms = append(info.Symptoms, "spec.suspend is true")
		faults = append(faults, info)
	}

	if cj.Spec.ConcurrencyPolicy == batchv1.ForbidConcurrent && len(cj.Status.Active) > 1 {
		info := d.base(cj, namespace, SeverityHigh,
			fmt.Sprintf("CronJob %s has %d active jobs under Forbid", cj.Name, len(cj.Status.Active)),
			fmt.Sprintf("CronJob %s/%s forbids concurrency but %d jobs are active; new runs are being skipped.",
				namespace, cj.Name, len(cj.Status.Active)))
		info.Context[CtxIssueCategory] = "TOO_MANY_ACTIVE"
		info.Context[CtxActiveCount] = fmt.Sprintf("%d", len(cj.Status.Active))
		info.Symptoms = append(info.Symptoms,
			fmt.Sprintf("%d active jobs with concurrencyPolicy=Forbid", len(cj.Status.Active)))
		faults = append(faults, info)
	}

	stale := false
	if cj.Status.LastScheduleTime != nil {
		stale = now.Sub(cj.Status.LastScheduleTime.Time) > scheduleStaleAfter
	} else {
		stale = now.Sub(cj.CreationTimestamp.Time) > neverScheduledGrace
	}
	if stale {
		info := d.base(cj, namespace, SeverityMedium,
			fmt.Sprintf("CronJob %s has not been scheduled recently", cj.Name),
			fmt.Sprintf("CronJob %s/%s shows no recent schedule activity for its %q schedule.",
				namespace, cj.Name, cj.Spec.Schedule))
		info.Context[CtxIssueCategory] = "SCHEDULE_STALE"
		if cj.Status.LastScheduleTime != nil {
			info.Symptoms = append(info.Symptoms,
				fmt.Sprintf("lastScheduleTime %s", cj.Status.LastScheduleTime.Format(time.RFC3339)))
		} else {
			info.Symptoms = append(info.Symptoms, "never scheduled since creation")
		}
		faults = append(faults, info)
	}

	return faults
}

// base fills the shared CronJob fault fields.
func (d *CronJobFailedDetector) base(cj *batchv1.CronJob, namespace string, sev Severity, summary, description string) Info {
	info := newInfo(TypeCronJobFailed, sev, KindCronJob, namespace, cj.Name, summary, description)
	info.Context[CtxSchedule] = cj.Spec.Schedule
	info.Context[CtxConcurrencyPolicy] = string(cj.Spec.ConcurrencyPolicy)
	if cj.Status.LastScheduleTime != nil {
		info.Context[CtxLastScheduleTime] = cj.Status.LastScheduleTime.Format(time.RFC3339)
	}
	if cj.Status.LastSuccessfulTime != nil {
		info.Context[CtxLastSuccessfulTime] = cj.Status.LastSuccessfulTime.Format(time.RFC3339)
	}
	info.Context[CtxOwnerKind] = KindCronJob
	info.Context[CtxOwnerName] = cj.Name
	return info
}
