package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PlatformSpec defines the desired state of Platform
type PlatformSpec struct {
	// AdminUser is the initial admin account created in the web tier.
	// +kubebuilder:default=admin
	AdminUser string `json:"adminUser,omitempty" yaml:"adminUser,omitempty"`

	// AdminEmail is the email address for the admin account.
	// +kubebuilder:default="admin@localhost"
	AdminEmail string `json:"adminEmail,omitempty" yaml:"adminEmail,omitempty"`

	// AdminPasswordSecret names a Secret holding the admin password.
	// If empty, a password is generated and stored in <name>-admin-password.
	AdminPasswordSecret string `json:"adminPasswordSecret,omitempty" yaml:"adminPasswordSecret,omitempty"`

	// Image is the application image for the web and task tiers.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// ImageVersion is the application version tag.
	ImageVersion string `json:"imageVersion,omitempty" yaml:"imageVersion,omitempty"`

	// ImagePullPolicy for all managed pods.
	// +kubebuilder:validation:Enum=Always;Never;IfNotPresent
	// +kubebuilder:default=IfNotPresent
	ImagePullPolicy string `json:"imagePullPolicy,omitempty" yaml:"imagePullPolicy,omitempty"`

	// PostgresImage is the database image.
	// +kubebuilder:default="postgres:13"
	PostgresImage string `json:"postgresImage,omitempty" yaml:"postgresImage,omitempty"`

	// PostgresStorageClass selects the storage class for the database PVC.
	PostgresStorageClass string `json:"postgresStorageClass,omitempty" yaml:"postgresStorageClass,omitempty"`

	// PostgresStorageSize is the database PVC size (e.g. "8Gi").
	// +kubebuilder:default="8Gi"
	PostgresStorageSize string `json:"postgresStorageSize,omitempty" yaml:"postgresStorageSize,omitempty"`

	// PostgresConfigurationSecret names a Secret with database connection
	// settings for an external database. When set, no database tier is
	// rendered.
	PostgresConfigurationSecret string `json:"postgresConfigurationSecret,omitempty" yaml:"postgresConfigurationSecret,omitempty"`

	// RedisImage is the cache image.
	// +kubebuilder:default="redis:7"
	RedisImage string `json:"redisImage,omitempty" yaml:"redisImage,omitempty"`

	// WebReplicas is the web tier replica count.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=1
	WebReplicas int32 `json:"webReplicas,omitempty" yaml:"webReplicas,omitempty"`

	// TaskReplicas is the task tier replica count. When autoscaling is
	// enabled this is the initial count only; the decision engine owns it
	// afterwards.
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:default=1
	TaskReplicas int32 `json:"taskReplicas,omitempty" yaml:"taskReplicas,omitempty"`

	// ServiceType for the web service.
	// +kubebuilder:validation:Enum=ClusterIP;NodePort;LoadBalancer
	// +kubebuilder:default=ClusterIP
	ServiceType string `json:"serviceType,omitempty" yaml:"serviceType,omitempty"`

	// IngressType selects how the web tier is exposed.
	// +kubebuilder:validation:Enum=none;ingress;route
	// +kubebuilder:default=none
	IngressType string `json:"ingressType,omitempty" yaml:"ingressType,omitempty"`

	// Hostname for the ingress, required when IngressType is not "none".
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`

	// ProjectsPersistence enables a shared PVC for project data.
	// +kubebuilder:default=false
	ProjectsPersistence bool `json:"projectsPersistence,omitempty" yaml:"projectsPersistence,omitempty"`

	// ProjectsStorageSize is the project PVC size.
	// +kubebuilder:default="8Gi"
	ProjectsStorageSize string `json:"projectsStorageSize,omitempty" yaml:"projectsStorageSize,omitempty"`

	// NoLog suppresses sensitive values in operator log output.
	// +kubebuilder:default=true
	NoLog bool `json:"noLog,omitempty" yaml:"noLog,omitempty"`

	// Autoscaling configures the task tier autoscaling decision engine.
	Autoscaling *AutoscalingPolicy `json:"autoscaling,omitempty" yaml:"autoscaling,omitempty"`

	// Backup configures the backup pipeline for this platform.
	Backup *BackupPolicy `json:"backup,omitempty" yaml:"backup,omitempty"`
}

// AutoscalingPolicy configures the fork-budget-aware autoscaler for the
// task tier.
type AutoscalingPolicy struct {
	// Enabled turns the decision engine on.
	// +kubebuilder:default=false
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// MinTaskReplicas is the lower replica bound.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=1
	MinTaskReplicas int32 `json:"minTaskReplicas,omitempty" yaml:"minTaskReplicas,omitempty"`

	// MaxTaskReplicas is the upper replica bound.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=10
	MaxTaskReplicas int32 `json:"maxTaskReplicas,omitempty" yaml:"maxTaskReplicas,omitempty"`

	// TargetCPUUtilization is the CPU utilization target in percent.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=100
	// +kubebuilder:default=70
	TargetCPUUtilization int32 `json:"targetCPUUtilization,omitempty" yaml:"targetCPUUtilization,omitempty"`

	// TargetMemoryUtilization is the memory utilization target in percent.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=100
	// +kubebuilder:default=80
	TargetMemoryUtilization int32 `json:"targetMemoryUtilization,omitempty" yaml:"targetMemoryUtilization,omitempty"`

	// MaxForksPerTask is the hard per-task fork cap, enforced before a task
	// pod is scheduled.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=50
	MaxForksPerTask int32 `json:"maxForksPerTask,omitempty" yaml:"maxForksPerTask,omitempty"`

	// MaxTotalForks is the optional global fork cap across all active task
	// pods. Nil means unlimited.
	MaxTotalForks *int32 `json:"maxTotalForks,omitempty" yaml:"maxTotalForks,omitempty"`

	// ScaleUpThreshold is the utilization score at or above which the engine
	// scales up.
	// +kubebuilder:default=0.8
	ScaleUpThreshold float64 `json:"scaleUpThreshold,omitempty" yaml:"scaleUpThreshold,omitempty"`

	// ScaleDownThreshold is the utilization score at or below which the
	// engine scales down.
	// +kubebuilder:default=0.3
	ScaleDownThreshold float64 `json:"scaleDownThreshold,omitempty" yaml:"scaleDownThreshold,omitempty"`

	// ScaleStep is how many replicas a single decision adds or removes.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=1
	ScaleStep int32 `json:"scaleStep,omitempty" yaml:"scaleStep,omitempty"`

	// CooldownPeriodSeconds is the window after an enacted decision during
	// which no further scaling decision is enacted.
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:default=300
	CooldownPeriodSeconds int32 `json:"cooldownPeriodSeconds,omitempty" yaml:"cooldownPeriodSeconds,omitempty"`
}

// BackupPolicy configures the backup pipeline and retention for a platform.
type BackupPolicy struct {
	// StorageType selects the cloud storage backend.
	// +kubebuilder:validation:Enum=local;s3;azure;gcs
	// +kubebuilder:default=local
	StorageType string `json:"storageType,omitempty" yaml:"storageType,omitempty"`

	// S3 configures an S3-compatible target. Required when StorageType is "s3".
	S3 *S3StorageConfig `json:"s3,omitempty" yaml:"s3,omitempty"`

	// Azure configures an Azure Blob target. Required when StorageType is "azure".
	Azure *AzureStorageConfig `json:"azure,omitempty" yaml:"azure,omitempty"`

	// GCS configures a Google Cloud Storage target. Required when StorageType is "gcs".
	GCS *GCSStorageConfig `json:"gcs,omitempty" yaml:"gcs,omitempty"`

	// Local configures a local-volume target. Required when StorageType is "local".
	Local *LocalStorageConfig `json:"local,omitempty" yaml:"local,omitempty"`

	// RetentionDays is the maximum backup age in days. Zero disables the
	// age limit.
	// +kubebuilder:default=30
	RetentionDays int32 `json:"retentionDays,omitempty" yaml:"retentionDays,omitempty"`

	// MaxBackups caps the total number of retained backups. Nil means no cap.
	MaxBackups *int32 `json:"maxBackups,omitempty" yaml:"maxBackups,omitempty"`

	// Retention holds the bucketed retention counts. When set it takes
	// precedence over MaxBackups.
	Retention *RetentionSpec `json:"retention,omitempty" yaml:"retention,omitempty"`

	// Schedule is a cron expression for automatic backups (e.g. "0 2 * * *").
	// Empty disables scheduled backups.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`

	// Compress gzips the dump before upload.
	// +kubebuilder:default=true
	Compress bool `json:"compress,omitempty" yaml:"compress,omitempty"`

	// EncryptionKeySecret names a Secret holding the AES-256 key used to
	// encrypt artifacts. Empty disables encryption.
	EncryptionKeySecret string `json:"encryptionKeySecret,omitempty" yaml:"encryptionKeySecret,omitempty"`
}

// RetentionSpec holds the bucketed retention counts evaluated by the pruner.
type RetentionSpec struct {
	// Daily is the number of daily backups to keep.
	// +kubebuilder:validation:Minimum=0
	Daily int32 `json:"daily,omitempty" yaml:"daily,omitempty"`

	// Weekly is the number of weekly backups to keep.
	// +kubebuilder:validation:Minimum=0
	Weekly int32 `json:"weekly,omitempty" yaml:"weekly,omitempty"`

	// Monthly is the number of monthly backups to keep.
	// +kubebuilder:validation:Minimum=0
	Monthly int32 `json:"monthly,omitempty" yaml:"monthly,omitempty"`

	// Yearly is the number of yearly backups to keep.
	// +kubebuilder:validation:Minimum=0
	Yearly int32 `json:"yearly,omitempty" yaml:"yearly,omitempty"`

	// MaxAgeDays deletes anything older regardless of bucket, subject to the
	// safety floor. Zero disables the age limit.
	// +kubebuilder:validation:Minimum=0
	MaxAgeDays int32 `json:"maxAgeDays,omitempty" yaml:"maxAgeDays,omitempty"`
}

// S3StorageConfig configures an S3-compatible storage target.
type S3StorageConfig struct {
	// Bucket is the S3 bucket name.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=3
	// +kubebuilder:validation:MaxLength=63
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region.
	// +kubebuilder:default=us-east-1
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (for MinIO and friends).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Prefix is the key prefix for artifacts.
	// +kubebuilder:default=warden-backups
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// CredentialsSecret names a Secret with AWS credentials. Empty uses the
	// ambient credential chain.
	CredentialsSecret string `json:"credentialsSecret,omitempty" yaml:"credentialsSecret,omitempty"`
}

// AzureStorageConfig configures an Azure Blob storage target.
type AzureStorageConfig struct {
	// StorageAccount is the Azure storage account name.
	// +kubebuilder:validation:Required
	StorageAccount string `json:"storageAccount" yaml:"storageAccount"`

	// Container is the blob container name.
	// +kubebuilder:validation:Required
	Container string `json:"container" yaml:"container"`

	// Prefix is the blob name prefix for artifacts.
	// +kubebuilder:default=warden-backups
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// ConnectionStringSecret names a Secret with the Azure connection string.
	ConnectionStringSecret string `json:"connectionStringSecret,omitempty" yaml:"connectionStringSecret,omitempty"`
}

// GCSStorageConfig configures a Google Cloud Storage target.
type GCSStorageConfig struct {
	// Bucket is the GCS bucket name.
	// +kubebuilder:validation:Required
	Bucket string `json:"bucket" yaml:"bucket"`

	// ProjectID is the GCP project.
	ProjectID string `json:"projectID,omitempty" yaml:"projectID,omitempty"`

	// Prefix is the object prefix for artifacts.
	// +kubebuilder:default=warden-backups
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// CredentialsSecret names a Secret with a service account key. Empty
	// uses application default credentials.
	CredentialsSecret string `json:"credentialsSecret,omitempty" yaml:"credentialsSecret,omitempty"`
}

// LocalStorageConfig configures a local-volume storage target.
type LocalStorageConfig struct {
	// Path is the directory artifacts are written to.
	// +kubebuilder:validation:Required
	Path string `json:"path" yaml:"path"`
}

// PlatformPhase describes where a platform is in its lifecycle.
// +kubebuilder:validation:Enum=Pending;Reconciling;Ready;Degraded;Failed;Deleting
type PlatformPhase string

const (
	// PlatformPhasePending means the platform has been admitted but not yet
	// reconciled.
	PlatformPhasePending PlatformPhase = "Pending"

	// PlatformPhaseReconciling means a reconciliation pass is bringing the
	// cluster toward the desired state.
	PlatformPhaseReconciling PlatformPhase = "Reconciling"

	// PlatformPhaseReady means all desired objects match observed state and
	// the health checker reports healthy.
	PlatformPhaseReady PlatformPhase = "Ready"

	// PlatformPhaseDegraded means objects applied cleanly but one or more
	// subsystems report unhealthy. Retried on a fixed interval.
	PlatformPhaseDegraded PlatformPhase = "Degraded"

	// PlatformPhaseFailed means a non-retryable error occurred. Requires a
	// spec correction to re-trigger reconciliation.
	PlatformPhaseFailed PlatformPhase = "Failed"

	// PlatformPhaseDeleting means the deletion timestamp has been observed
	// and owned resources are being released.
	PlatformPhaseDeleting PlatformPhase = "Deleting"
)

// PlatformStatus defines the observed state of Platform
type PlatformStatus struct {
	// Phase is the current lifecycle state.
	Phase PlatformPhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// ObservedGeneration is the spec generation last acted upon.
	ObservedGeneration int64 `json:"observedGeneration,omitempty" yaml:"observedGeneration,omitempty"`

	// Message is a human-readable explanation of the current phase. Always
	// populated for terminal phases.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// LastTransitionTime is when Phase last changed.
	LastTransitionTime *metav1.Time `json:"lastTransitionTime,omitempty" yaml:"lastTransitionTime,omitempty"`

	// ReadyWebReplicas is the observed ready replica count of the web tier.
	ReadyWebReplicas int32 `json:"readyWebReplicas,omitempty" yaml:"readyWebReplicas,omitempty"`

	// ReadyTaskReplicas is the observed ready replica count of the task tier.
	ReadyTaskReplicas int32 `json:"readyTaskReplicas,omitempty" yaml:"readyTaskReplicas,omitempty"`

	// Version is the deployed application version.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// AdminPasswordSecret is the Secret holding the generated admin password.
	AdminPasswordSecret string `json:"adminPasswordSecret,omitempty" yaml:"adminPasswordSecret,omitempty"`

	// Conditions represent the latest available observations of the
	// platform's state.
	Conditions []metav1.Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=plat
// +kubebuilder:printcolumn:name="Phase",type="string",JSONPath=".status.phase"
// +kubebuilder:printcolumn:name="Web",type="integer",JSONPath=".status.readyWebReplicas"
// +kubebuilder:printcolumn:name="Task",type="integer",JSONPath=".status.readyTaskReplicas"
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// Platform is the Schema for the platforms API
type Platform struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   PlatformSpec   `json:"spec,omitempty"`
	Status PlatformStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// PlatformList contains a list of Platform
type PlatformList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Platform `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Platform{}, &PlatformList{})
}
