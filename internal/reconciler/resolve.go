package reconciler

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"warden/internal/backup"
	"warden/internal/operrors"
	"warden/internal/render"
	"warden/internal/storage"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// resolveConn reads the platform's database connection secret. Both the
// managed tier and external databases use the same secret shape: host,
// port, database, username, password.
func resolveConn(ctx context.Context, c client.Client, p *wardenv1alpha1.Platform) (backup.DatabaseConn, error) {
	name := render.PostgresConfigurationSecretName(p)

	var secret corev1.Secret
	if err := c.Get(ctx, types.NamespacedName{Namespace: p.Namespace, Name: name}, &secret); err != nil {
		return backup.DatabaseConn{}, operrors.NewTransient(
			fmt.Sprintf("reading database configuration secret %s", name), err)
	}

	conn := backup.DatabaseConn{
		Host:     string(secret.Data["host"]),
		Port:     string(secret.Data["port"]),
		Database: string(secret.Data["database"]),
		User:     string(secret.Data["username"]),
		Password: string(secret.Data["password"]),
	}
	if conn.Host == "" || conn.Database == "" {
		return backup.DatabaseConn{}, operrors.NewValidationError("Secret", name,
			[]string{"database configuration secret is missing host or database"})
	}
	if conn.Port == "" {
		conn.Port = "5432"
	}
	return conn, nil
}

// resolveCredentials reads the storage credential secret named by the
// policy. Missing secret names leave the fields empty so the backend's
// ambient credential chain takes over.
func resolveCredentials(ctx context.Context, c client.Client, namespace string, policy *wardenv1alpha1.BackupPolicy) (storage.Credentials, error) {
	var creds storage.Credentials

	switch policy.StorageType {
	case "s3":
		if policy.S3 == nil || policy.S3.CredentialsSecret == "" {
			return creds, nil
		}
		data, err := secretData(ctx, c, namespace, policy.S3.CredentialsSecret)
		if err != nil {
			return creds, err
		}
		creds.AWSAccessKeyID = string(data["AWS_ACCESS_KEY_ID"])
		creds.AWSSecretAccessKey = string(data["AWS_SECRET_ACCESS_KEY"])

	case "azure":
		if policy.Azure == nil || policy.Azure.ConnectionStringSecret == "" {
			return creds, operrors.NewValidationError("BackupPolicy", "azure",
				[]string{"azure backup requires a connection string secret"})
		}
		data, err := secretData(ctx, c, namespace, policy.Azure.ConnectionStringSecret)
		if err != nil {
			return creds, err
		}
		creds.AzureConnectionString = string(data["connection-string"])
		if creds.AzureConnectionString == "" {
			return creds, operrors.NewValidationError("Secret", policy.Azure.ConnectionStringSecret,
				[]string{"missing key connection-string"})
		}

	case "gcs":
		if policy.GCS == nil || policy.GCS.CredentialsSecret == "" {
			return creds, nil
		}
		data, err := secretData(ctx, c, namespace, policy.GCS.CredentialsSecret)
		if err != nil {
			return creds, err
		}
		creds.GCSCredentialsJSON = data["credentials.json"]
	}

	return creds, nil
}

// resolveEncryptionKey reads the AES key from the policy's secret. Nil
// policy or empty secret name disables encryption.
func resolveEncryptionKey(ctx context.Context, c client.Client, namespace string, policy *wardenv1alpha1.BackupPolicy) ([]byte, error) {
	if policy == nil || policy.EncryptionKeySecret == "" {
		return nil, nil
	}

	data, err := secretData(ctx, c, namespace, policy.EncryptionKeySecret)
	if err != nil {
		return nil, err
	}
	key := data["key"]
	if len(key) != 32 {
		return nil, operrors.NewValidationError("Secret", policy.EncryptionKeySecret,
			[]string{fmt.Sprintf("must hold a 32-byte key under \"key\", got %d bytes", len(key))})
	}
	return key, nil
}

func secretData(ctx context.Context, c client.Client, namespace, name string) (map[string][]byte, error) {
	var secret corev1.Secret
	if err := c.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, &secret); err != nil {
		return nil, operrors.NewTransient(fmt.Sprintf("reading secret %s/%s", namespace, name), err)
	}
	return secret.Data, nil
}
