package backup

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus tracks a backup run through the pipeline. Transitions are
// strictly forward; a record never leaves Complete or Failed.
type RecordStatus string

const (
	StatusScheduled   RecordStatus = "Scheduled"
	StatusRunning     RecordStatus = "Running"
	StatusCompressing RecordStatus = "Compressing"
	StatusEncrypting  RecordStatus = "Encrypting"
	StatusUploading   RecordStatus = "Uploading"
	StatusVerifying   RecordStatus = "Verifying"
	StatusComplete    RecordStatus = "Complete"
	StatusFailed      RecordStatus = "Failed"
)

// order positions each status on the pipeline. Used to reject backward
// transitions.
var order = map[RecordStatus]int{
	StatusScheduled:   0,
	StatusRunning:     1,
	StatusCompressing: 2,
	StatusEncrypting:  3,
	StatusUploading:   4,
	StatusVerifying:   5,
	StatusComplete:    6,
	StatusFailed:      6,
}

// Record is the ledger entry for one backup run. Everything except Status,
// SizeBytes, Checksum, and Message is fixed at creation.
type Record struct {
	ID             string
	DeploymentName string
	Namespace      string
	ArtifactName   string
	CreatedAt      time.Time
	SizeBytes      int64
	Checksum       string
	StorageTarget  string
	Status         RecordStatus
	Message        string
}

// NewRecord opens a ledger entry in Scheduled.
func NewRecord(deployment, namespace string, createdAt time.Time) *Record {
	return &Record{
		ID:             uuid.NewString(),
		DeploymentName: deployment,
		Namespace:      namespace,
		CreatedAt:      createdAt,
		Status:         StatusScheduled,
	}
}

// Advance moves the record forward. Backward transitions are ignored so a
// late status write can never roll back a terminal state.
func (r *Record) Advance(next RecordStatus) {
	if r.Terminal() {
		return
	}
	if order[next] < order[r.Status] {
		return
	}
	r.Status = next
}

// Fail terminates the record with an explanation.
func (r *Record) Fail(message string) {
	if r.Status == StatusComplete {
		return
	}
	r.Status = StatusFailed
	r.Message = message
}

// Terminal reports whether the record reached Complete or Failed.
func (r *Record) Terminal() bool {
	return r.Status == StatusComplete || r.Status == StatusFailed
}
