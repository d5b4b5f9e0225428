package operrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "validation",
			err:  NewValidationError("Platform", "demo", []string{"service_type must be one of [ClusterIP NodePort LoadBalancer]"}),
			want: "validation",
		},
		{
			name: "transient",
			err:  NewTransient("get deployment", errors.New("timeout")),
			want: "transient",
		},
		{
			name: "conflict",
			err:  NewConflict("Deployment", "demo-task", errors.New("object modified")),
			want: "conflict",
		},
		{
			name: "budget",
			err:  NewBudgetExceeded("max_total_forks", 80, 20),
			want: "budget_exceeded",
		},
		{
			name: "verification",
			err:  NewVerification("demo-20240101-020000.tar.gz", "sha256", "abc", "def"),
			want: "verification",
		},
		{
			name: "wrapped transient",
			err:  fmt.Errorf("reconcile: %w", NewTransient("list pods", errors.New("eof"))),
			want: "transient",
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewTransient("put", errors.New("reset"))))
	assert.True(t, IsRetryable(NewConflict("Platform", "demo", errors.New("conflict"))))

	assert.False(t, IsRetryable(NewValidationError("Platform", "demo", []string{"bad"})))
	assert.False(t, IsRetryable(NewBudgetExceeded("max_forks_per_task", 100, 50)))
	assert.False(t, IsRetryable(NewVerification("a", "size", "1", "2")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestValidationErrorListsEveryViolation(t *testing.T) {
	err := NewValidationError("Platform", "demo", []string{
		"metadata.name must be a valid DNS-1123 label",
		"spec.postgresStorageSize is not a valid quantity",
	})

	msg := err.Error()
	assert.Contains(t, msg, "DNS-1123")
	assert.Contains(t, msg, "valid quantity")
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransient("probe redis", cause)
	assert.ErrorIs(t, err, cause)
}
