package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PlatformRestoreSpec defines the desired state of PlatformRestore
type PlatformRestoreSpec struct {
	// DeploymentName is the Platform to restore into.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Pattern="^[a-z0-9]([-a-z0-9]*[a-z0-9])?$"
	DeploymentName string `json:"deploymentName" yaml:"deploymentName"`

	// BackupName selects the source backup by PlatformBackup name.
	// Exactly one of BackupName or BackupID must be set.
	BackupName string `json:"backupName,omitempty" yaml:"backupName,omitempty"`

	// BackupID selects the source backup by record id.
	BackupID string `json:"backupID,omitempty" yaml:"backupID,omitempty"`

	// NoLog suppresses sensitive values in log output for this restore.
	// +kubebuilder:default=true
	NoLog bool `json:"noLog,omitempty" yaml:"noLog,omitempty"`
}

// RestorePhase describes where a restore attempt is in its pipeline.
//
// The canonical forward sequence mirrors the backup pipeline: Downloading,
// Decrypting, Decompressing, Restoring, Verifying, Complete; optional steps
// are elided when the source artifact was not encrypted or compressed.
// Failed is reachable from any non-terminal phase. Restore never mutates
// the source backup artifact.
// +kubebuilder:validation:Enum=Downloading;Decrypting;Decompressing;Restoring;Verifying;Complete;Failed
type RestorePhase string

const (
	RestorePhaseDownloading   RestorePhase = "Downloading"
	RestorePhaseDecrypting    RestorePhase = "Decrypting"
	RestorePhaseDecompressing RestorePhase = "Decompressing"
	RestorePhaseRestoring     RestorePhase = "Restoring"
	RestorePhaseVerifying     RestorePhase = "Verifying"
	RestorePhaseComplete      RestorePhase = "Complete"
	RestorePhaseFailed        RestorePhase = "Failed"
)

// Terminal reports whether no further automatic transition occurs from p.
func (p RestorePhase) Terminal() bool {
	return p == RestorePhaseComplete || p == RestorePhaseFailed
}

// PlatformRestoreStatus defines the observed state of PlatformRestore
type PlatformRestoreStatus struct {
	// Phase is the current pipeline state.
	Phase RestorePhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// RestoredFromBackup is the backup record id the restore used.
	RestoredFromBackup string `json:"restoredFromBackup,omitempty" yaml:"restoredFromBackup,omitempty"`

	// RestoreTime is when the restore completed.
	RestoreTime *metav1.Time `json:"restoreTime,omitempty" yaml:"restoreTime,omitempty"`

	// Message explains the current phase; always set when Phase is Failed.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Conditions represent the latest available observations of the restore.
	Conditions []metav1.Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=platres
// +kubebuilder:printcolumn:name="Platform",type="string",JSONPath=".spec.deploymentName"
// +kubebuilder:printcolumn:name="Phase",type="string",JSONPath=".status.phase"
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// PlatformRestore is the Schema for the platformrestores API
type PlatformRestore struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   PlatformRestoreSpec   `json:"spec,omitempty"`
	Status PlatformRestoreStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// PlatformRestoreList contains a list of PlatformRestore
type PlatformRestoreList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []PlatformRestore `json:"items"`
}

func init() {
	SchemeBuilder.Register(&PlatformRestore{}, &PlatformRestoreList{})
}
