package fault

import (
	"testing"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

var cronNow = time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)

func fixedNowCronDetector() *CronJobFailedDetector {
	return &CronJobFailedDetector{now: func() time.Time { return cronNow }}
}

func TestCronJob_SuspendedWithStaleSchedule(t *testing.T) {
	suspend := true
	last := metav1.NewTime(cronNow.Add(-48 * time.Hour))
	cj := &batchv1.CronJob{
		ObjectMeta: metav1.ObjectMeta{Name: "backup", Namespace: "ops",
			CreationTimestamp: metav1.NewTime(cronNow.Add(-30 * 24 * time.Hour))},
		Spec: batchv1.CronJobSpec{
			Schedule: "0 2 * * *",
			Suspend:  &suspend,
		},
		Status: batchv1.CronJobStatus{LastScheduleTime: &last},
	}

	faults := fixedNowCronDetector().Detect("c1", "ops", cj)
	if len(faults) != 2 {
		t.Fatalf("got %d faults, want 2 (SUSPENDED + SCHEDULE_STALE)", len(faults))
	}

	categories := map[string]Severity{}
	for _, f := range faults {
		categories[f.Context[CtxIssueCategory]] = f.Severity
	}
	if sev, ok := categories["SUSPENDED"]; !ok || sev != SeverityMedium {
		t.Errorf("SUSPENDED fault missing or wrong severity: %v", categories)
	}
	if sev, ok := categories["SCHEDULE_STALE"]; !ok || sev != SeverityMedium {
		t.Errorf("SCHEDULE_STALE fault missing or wrong severity: %v", categories)
	}
}

func TestCronJob_TooManyActiveUnderForbid(t *testing.T) {
	last := metav1.NewTime(cronNow.Add(-10 * time.Minute))
	cj := &batchv1.CronJob{
		ObjectMeta: metav1.ObjectMeta{Name: "sync", Namespace: "ops",
			CreationTimestamp: metav1.NewTime(cronNow.Add(-24 * time.Hour))},
		Spec: batchv1.CronJobSpec{
			Schedule:          "*/5 * * * *",
			ConcurrencyPolicy: batchv1.ForbidConcurrent,
		},
		Status: batchv1.CronJobStatus{
			LastScheduleTime: &last,
			Active: []corev1.ObjectReference{
				{Name: "sync-1"}, {Name: "sync-2"}, {Name: "sync-3"},
			},
		},
	}

	faults := fixedNowCronDetector().Detect("c1", "ops", cj)
	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1", len(faults))
	}
	f := faults[0]
	if f.Context[CtxIssueCategory] != "TOO_MANY_ACTIVE" {
		t.Errorf("issueCategory = %q, want TOO_MANY_ACTIVE", f.Context[CtxIssueCategory])
	}
	if f.Severity != SeverityHigh {
		t.Errorf("Severity = %v, want HIGH", f.Severity)
	}
	if f.Context[CtxActiveCount] != "3" {
		t.Errorf("activeCount = %q, want 3", f.Context[CtxActiveCount])
	}
}

func TestCronJob_NeverScheduledAfterGrace(t *testing.T) {
	cj := &batchv1.CronJob{
		ObjectMeta: metav1.ObjectMeta{Name: "new", Namespace: "ops",
			CreationTimestamp: metav1.NewTime(cronNow.Add(-2 * time.Hour))},
		Spec: batchv1.CronJobSpec{Schedule: "0 * * * *"},
	}
	faults := fixedNowCronDetector().Detect("c1", "ops", cj)
	if len(faults) != 1 || faults[0].Context[CtxIssueCategory] != "SCHEDULE_STALE" {
		t.Fatalf("want one SCHEDULE_STALE fault, got %v", faults)
	}
}

func TestCronJob_HealthyNoFaults(t *testing.T) {
	last := metav1.NewTime(cronNow.Add(-30 * time.Minute))
	cj := &batchv1.CronJob{
		ObjectMeta: metav1.ObjectMeta{Name: "ok", Namespace: "ops",
			CreationTimestamp: metav1.NewTime(cronNow.Add(-24 * time.Hour))},
		Spec:   batchv1.CronJobSpec{Schedule: "0 * * * *"},
		Status: batchv1.CronJobStatus{LastScheduleTime: &last},
	}
	if faults := fixedNowCronDetector().Detect("c1", "ops", cj); len(faults) != 0 {
		t.Errorf("got %d faults for healthy cronjob, want 0", len(faults))
	}
}
