package v1alpha1

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func validPlatform() *Platform {
	maxTotal := int32(200)
	return &Platform{
		ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "default"},
		Spec: PlatformSpec{
			ImagePullPolicy:     "IfNotPresent",
			ServiceType:         "ClusterIP",
			IngressType:         "none",
			PostgresStorageSize: "8Gi",
			WebReplicas:         1,
			TaskReplicas:        3,
			Autoscaling: &AutoscalingPolicy{
				Enabled:                 true,
				MinTaskReplicas:         1,
				MaxTaskReplicas:         10,
				TargetCPUUtilization:    70,
				TargetMemoryUtilization: 80,
				MaxForksPerTask:         50,
				MaxTotalForks:           &maxTotal,
				ScaleUpThreshold:        0.8,
				ScaleDownThreshold:      0.3,
				ScaleStep:               1,
				CooldownPeriodSeconds:   300,
			},
			Backup: &BackupPolicy{
				StorageType:   "s3",
				S3:            &S3StorageConfig{Bucket: "demo-backups", Region: "eu-west-1"},
				RetentionDays: 30,
				Schedule:      "0 2 * * *",
				Compress:      true,
			},
		},
	}
}

func TestValidatePlatform_Valid(t *testing.T) {
	assert.Empty(t, ValidatePlatform(validPlatform()))
}

func TestValidatePlatform_CollectsEveryViolation(t *testing.T) {
	p := validPlatform()
	p.Spec.ServiceType = "External"
	p.Spec.PostgresStorageSize = "8 gigabytes"
	p.Spec.Autoscaling.MaxTaskReplicas = 0
	p.Spec.Backup.Schedule = "not-cron"

	violations := ValidatePlatform(p)
	assert.Len(t, violations, 4)
}

func TestValidatePlatform(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Platform)
		wantHit string
	}{
		{
			name:    "bad name",
			mutate:  func(p *Platform) { p.Name = "Demo_Platform" },
			wantHit: "metadata.name",
		},
		{
			name:    "ingress without hostname",
			mutate:  func(p *Platform) { p.Spec.IngressType = "ingress" },
			wantHit: "spec.hostname",
		},
		{
			name:    "bad storage size",
			mutate:  func(p *Platform) { p.Spec.PostgresStorageSize = "8GB" },
			wantHit: "spec.postgresStorageSize",
		},
		{
			name:    "min above max replicas",
			mutate:  func(p *Platform) { p.Spec.Autoscaling.MinTaskReplicas = 20 },
			wantHit: "maxTaskReplicas",
		},
		{
			name:    "cpu target out of range",
			mutate:  func(p *Platform) { p.Spec.Autoscaling.TargetCPUUtilization = 150 },
			wantHit: "targetCPUUtilization",
		},
		{
			name:    "global forks below per-task cap",
			mutate:  func(p *Platform) { v := int32(10); p.Spec.Autoscaling.MaxTotalForks = &v },
			wantHit: "maxTotalForks",
		},
		{
			name:    "thresholds inverted",
			mutate:  func(p *Platform) { p.Spec.Autoscaling.ScaleDownThreshold = 0.9 },
			wantHit: "scaleDownThreshold",
		},
		{
			name:    "s3 config missing",
			mutate:  func(p *Platform) { p.Spec.Backup.S3 = nil },
			wantHit: "spec.backup.s3",
		},
		{
			name:    "s3 bucket too short",
			mutate:  func(p *Platform) { p.Spec.Backup.S3.Bucket = "ab" },
			wantHit: "bucket",
		},
		{
			name:    "bad cron schedule",
			mutate:  func(p *Platform) { p.Spec.Backup.Schedule = "99 99 * * *" },
			wantHit: "schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlatform()
			tt.mutate(p)

			violations := ValidatePlatform(p)
			assert.NotEmpty(t, violations)

			found := false
			for _, v := range violations {
				if strings.Contains(v, tt.wantHit) {
					found = true
					break
				}
			}
			assert.True(t, found, "expected a violation mentioning %q, got %v", tt.wantHit, violations)
		})
	}
}

func TestValidateRestore_SelectorRequired(t *testing.T) {
	r := &PlatformRestore{
		ObjectMeta: metav1.ObjectMeta{Name: "restore-1"},
		Spec:       PlatformRestoreSpec{DeploymentName: "demo"},
	}
	violations := ValidateRestore(r)
	assert.Len(t, violations, 1)

	r.Spec.BackupName = "bak"
	assert.Empty(t, ValidateRestore(r))

	r.Spec.BackupID = "some-id"
	violations = ValidateRestore(r)
	assert.Len(t, violations, 1)
}

func TestValidateStorageSize(t *testing.T) {
	valid := []string{"8Gi", "100Mi", "1Ti", "1.5Gi"}
	invalid := []string{"", "8", "8GB", "Gi", "eight-gigs"}

	for _, s := range valid {
		assert.True(t, ValidateStorageSize(s), "expected %q to validate", s)
	}
	for _, s := range invalid {
		assert.False(t, ValidateStorageSize(s), "expected %q to be rejected", s)
	}
}
