package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PlatformBackupSpec defines the desired state of PlatformBackup
type PlatformBackupSpec struct {
	// DeploymentName is the Platform to back up.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Pattern="^[a-z0-9]([-a-z0-9]*[a-z0-9])?$"
	DeploymentName string `json:"deploymentName" yaml:"deploymentName"`

	// StorageType overrides the platform's backup storage backend for this
	// attempt. Empty inherits the platform policy.
	// +kubebuilder:validation:Enum="";local;s3;azure;gcs
	StorageType string `json:"storageType,omitempty" yaml:"storageType,omitempty"`

	// PostgresImage overrides the image used for the dump job.
	PostgresImage string `json:"postgresImage,omitempty" yaml:"postgresImage,omitempty"`

	// NoLog suppresses sensitive values in log output for this backup.
	// +kubebuilder:default=true
	NoLog bool `json:"noLog,omitempty" yaml:"noLog,omitempty"`
}

// BackupPhase describes where a backup attempt is in its pipeline.
//
// The canonical forward sequence is Scheduled, Running, Compressing,
// Encrypting, Uploading, Verifying, Complete. Optional steps that policy
// disables are elided from the sequence, not executed as no-ops. Failed is
// reachable from any non-terminal phase; a phase never regresses.
// +kubebuilder:validation:Enum=Scheduled;Running;Compressing;Encrypting;Uploading;Verifying;Complete;Failed
type BackupPhase string

const (
	BackupPhaseScheduled   BackupPhase = "Scheduled"
	BackupPhaseRunning     BackupPhase = "Running"
	BackupPhaseCompressing BackupPhase = "Compressing"
	BackupPhaseEncrypting  BackupPhase = "Encrypting"
	BackupPhaseUploading   BackupPhase = "Uploading"
	BackupPhaseVerifying   BackupPhase = "Verifying"
	BackupPhaseComplete    BackupPhase = "Complete"
	BackupPhaseFailed      BackupPhase = "Failed"
)

// Terminal reports whether no further automatic transition occurs from p.
func (p BackupPhase) Terminal() bool {
	return p == BackupPhaseComplete || p == BackupPhaseFailed
}

// PlatformBackupStatus defines the observed state of PlatformBackup
type PlatformBackupStatus struct {
	// Phase is the current pipeline state.
	Phase BackupPhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// BackupID is the unique identifier for this attempt.
	BackupID string `json:"backupID,omitempty" yaml:"backupID,omitempty"`

	// ArtifactName is the stored artifact name, also used as the restore
	// selector (<deployment>-<YYYYMMDD-HHMMSS>.tar.gz, cipher-suffixed when
	// encrypted).
	ArtifactName string `json:"artifactName,omitempty" yaml:"artifactName,omitempty"`

	// SizeBytes is the artifact size, populated once upload completes.
	SizeBytes int64 `json:"sizeBytes,omitempty" yaml:"sizeBytes,omitempty"`

	// Checksum is the artifact sha256, recorded before upload and used by
	// verification on both the backup and restore paths.
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`

	// StorageTarget describes where the artifact lives ("s3:bucket/prefix").
	StorageTarget string `json:"storageTarget,omitempty" yaml:"storageTarget,omitempty"`

	// StartedAt is when the pipeline left Scheduled.
	StartedAt *metav1.Time `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`

	// CompletedAt is when the pipeline reached a terminal phase.
	CompletedAt *metav1.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`

	// Message explains the current phase; always set when Phase is Failed.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Conditions represent the latest available observations of the backup.
	Conditions []metav1.Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=platbak
// +kubebuilder:printcolumn:name="Platform",type="string",JSONPath=".spec.deploymentName"
// +kubebuilder:printcolumn:name="Phase",type="string",JSONPath=".status.phase"
// +kubebuilder:printcolumn:name="Artifact",type="string",JSONPath=".status.artifactName"
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// PlatformBackup is the Schema for the platformbackups API
type PlatformBackup struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   PlatformBackupSpec   `json:"spec,omitempty"`
	Status PlatformBackupStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// PlatformBackupList contains a list of PlatformBackup
type PlatformBackupList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []PlatformBackup `json:"items"`
}

func init() {
	SchemeBuilder.Register(&PlatformBackup{}, &PlatformBackupList{})
}
