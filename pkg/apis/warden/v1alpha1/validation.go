package v1alpha1

import (
	"fmt"
	"regexp"

	"github.com/robfig/cron/v3"
)

// Validation patterns, kept in sync with the CRD kubebuilder markers so the
// operator rejects the same specs the API server would with the CRD schema
// installed.
var (
	// RFC 1123 DNS label.
	namePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

	// Kubernetes storage quantity, e.g. "8Gi", "100Mi", "1.5Ti".
	storageSizePattern = regexp.MustCompile(`^\d+(\.\d+)?(Ki|Mi|Gi|Ti|Pi|Ei)$`)

	hostnamePattern = regexp.MustCompile(`(?i)^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)*[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
)

var (
	allowedServiceTypes = []string{"ClusterIP", "NodePort", "LoadBalancer"}
	allowedIngressTypes = []string{"none", "ingress", "route"}
	allowedPullPolicies = []string{"Always", "Never", "IfNotPresent"}
	allowedStorageTypes = []string{"local", "s3", "azure", "gcs"}
)

// ValidateName reports whether name is a valid Kubernetes resource name.
func ValidateName(name string) bool {
	if name == "" || len(name) > 253 {
		return false
	}
	return namePattern.MatchString(name)
}

// ValidateStorageSize reports whether size is a valid storage quantity.
func ValidateStorageSize(size string) bool {
	return size != "" && storageSizePattern.MatchString(size)
}

// ValidateHostname reports whether hostname is a well-formed DNS name.
func ValidateHostname(hostname string) bool {
	if hostname == "" || len(hostname) > 253 {
		return false
	}
	return hostnamePattern.MatchString(hostname)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// ValidatePlatform checks every constraint on a Platform spec and returns
// the full list of violations. An empty result means the spec is admissible.
// The pass runs once, before any mutation is attempted.
func ValidatePlatform(p *Platform) []string {
	var violations []string

	if !ValidateName(p.Name) {
		violations = append(violations, "metadata.name must be a valid DNS-1123 label")
	}

	spec := p.Spec

	if spec.ImagePullPolicy != "" && !oneOf(spec.ImagePullPolicy, allowedPullPolicies) {
		violations = append(violations, fmt.Sprintf("spec.imagePullPolicy must be one of %v", allowedPullPolicies))
	}
	if spec.ServiceType != "" && !oneOf(spec.ServiceType, allowedServiceTypes) {
		violations = append(violations, fmt.Sprintf("spec.serviceType must be one of %v", allowedServiceTypes))
	}
	if spec.IngressType != "" && !oneOf(spec.IngressType, allowedIngressTypes) {
		violations = append(violations, fmt.Sprintf("spec.ingressType must be one of %v", allowedIngressTypes))
	}
	if spec.IngressType != "" && spec.IngressType != "none" && !ValidateHostname(spec.Hostname) {
		violations = append(violations, "spec.hostname is required and must be a valid DNS name when ingress is enabled")
	}
	if spec.PostgresStorageSize != "" && !ValidateStorageSize(spec.PostgresStorageSize) {
		violations = append(violations, "spec.postgresStorageSize is not a valid storage quantity")
	}
	if spec.ProjectsPersistence && spec.ProjectsStorageSize != "" && !ValidateStorageSize(spec.ProjectsStorageSize) {
		violations = append(violations, "spec.projectsStorageSize is not a valid storage quantity")
	}
	if spec.WebReplicas < 0 {
		violations = append(violations, "spec.webReplicas must not be negative")
	}
	if spec.TaskReplicas < 0 {
		violations = append(violations, "spec.taskReplicas must not be negative")
	}

	if spec.Autoscaling != nil {
		violations = append(violations, validateAutoscaling(spec.Autoscaling)...)
	}
	if spec.Backup != nil {
		violations = append(violations, validateBackupPolicy(spec.Backup)...)
	}

	return violations
}

func validateAutoscaling(a *AutoscalingPolicy) []string {
	var violations []string

	if a.MinTaskReplicas < 1 {
		violations = append(violations, "spec.autoscaling.minTaskReplicas must be at least 1")
	}
	if a.MaxTaskReplicas < a.MinTaskReplicas {
		violations = append(violations, "spec.autoscaling.maxTaskReplicas must not be below minTaskReplicas")
	}
	if a.TargetCPUUtilization < 1 || a.TargetCPUUtilization > 100 {
		violations = append(violations, "spec.autoscaling.targetCPUUtilization must be between 1 and 100")
	}
	if a.TargetMemoryUtilization < 1 || a.TargetMemoryUtilization > 100 {
		violations = append(violations, "spec.autoscaling.targetMemoryUtilization must be between 1 and 100")
	}
	if a.MaxForksPerTask < 1 {
		violations = append(violations, "spec.autoscaling.maxForksPerTask must be at least 1")
	}
	if a.MaxTotalForks != nil && *a.MaxTotalForks < a.MaxForksPerTask {
		violations = append(violations, "spec.autoscaling.maxTotalForks must not be below maxForksPerTask")
	}
	if a.ScaleUpThreshold < 0 || a.ScaleUpThreshold > 1 {
		violations = append(violations, "spec.autoscaling.scaleUpThreshold must be between 0.0 and 1.0")
	}
	if a.ScaleDownThreshold < 0 || a.ScaleDownThreshold > 1 {
		violations = append(violations, "spec.autoscaling.scaleDownThreshold must be between 0.0 and 1.0")
	}
	if a.ScaleDownThreshold > a.ScaleUpThreshold {
		violations = append(violations, "spec.autoscaling.scaleDownThreshold must not exceed scaleUpThreshold")
	}
	if a.ScaleStep < 1 {
		violations = append(violations, "spec.autoscaling.scaleStep must be at least 1")
	}
	if a.CooldownPeriodSeconds < 0 {
		violations = append(violations, "spec.autoscaling.cooldownPeriodSeconds must not be negative")
	}

	return violations
}

func validateBackupPolicy(b *BackupPolicy) []string {
	var violations []string

	if b.StorageType != "" && !oneOf(b.StorageType, allowedStorageTypes) {
		violations = append(violations, fmt.Sprintf("spec.backup.storageType must be one of %v", allowedStorageTypes))
	}

	switch b.StorageType {
	case "s3":
		if b.S3 == nil {
			violations = append(violations, "spec.backup.s3 is required when storageType is s3")
		} else if len(b.S3.Bucket) < 3 || len(b.S3.Bucket) > 63 {
			violations = append(violations, "spec.backup.s3.bucket must be between 3 and 63 characters")
		}
	case "azure":
		if b.Azure == nil {
			violations = append(violations, "spec.backup.azure is required when storageType is azure")
		} else {
			if b.Azure.StorageAccount == "" {
				violations = append(violations, "spec.backup.azure.storageAccount is required")
			}
			if b.Azure.Container == "" {
				violations = append(violations, "spec.backup.azure.container is required")
			}
		}
	case "gcs":
		if b.GCS == nil {
			violations = append(violations, "spec.backup.gcs is required when storageType is gcs")
		} else if b.GCS.Bucket == "" {
			violations = append(violations, "spec.backup.gcs.bucket is required")
		}
	case "local":
		if b.Local != nil && b.Local.Path == "" {
			violations = append(violations, "spec.backup.local.path must not be empty")
		}
	}

	if b.RetentionDays < 0 {
		violations = append(violations, "spec.backup.retentionDays must not be negative")
	}
	if b.MaxBackups != nil && *b.MaxBackups < 1 {
		violations = append(violations, "spec.backup.maxBackups must be at least 1")
	}
	if b.Schedule != "" {
		if _, err := cron.ParseStandard(b.Schedule); err != nil {
			violations = append(violations, fmt.Sprintf("spec.backup.schedule is not a valid cron expression: %v", err))
		}
	}

	return violations
}

// ValidateBackup checks a PlatformBackup spec.
func ValidateBackup(b *PlatformBackup) []string {
	var violations []string

	if !ValidateName(b.Name) {
		violations = append(violations, "metadata.name must be a valid DNS-1123 label")
	}
	if !ValidateName(b.Spec.DeploymentName) {
		violations = append(violations, "spec.deploymentName must be a valid DNS-1123 label")
	}
	if b.Spec.StorageType != "" && !oneOf(b.Spec.StorageType, allowedStorageTypes) {
		violations = append(violations, fmt.Sprintf("spec.storageType must be one of %v", allowedStorageTypes))
	}

	return violations
}

// ValidateRestore checks a PlatformRestore spec. Exactly one of backupName
// and backupID must select the source.
func ValidateRestore(r *PlatformRestore) []string {
	var violations []string

	if !ValidateName(r.Name) {
		violations = append(violations, "metadata.name must be a valid DNS-1123 label")
	}
	if !ValidateName(r.Spec.DeploymentName) {
		violations = append(violations, "spec.deploymentName must be a valid DNS-1123 label")
	}
	if r.Spec.BackupName == "" && r.Spec.BackupID == "" {
		violations = append(violations, "one of spec.backupName or spec.backupID is required")
	}
	if r.Spec.BackupName != "" && r.Spec.BackupID != "" {
		violations = append(violations, "spec.backupName and spec.backupID are mutually exclusive")
	}

	return violations
}
