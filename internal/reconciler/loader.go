package reconciler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// Loader fetches the desired state of a resource. The Kubernetes loader
// reads from the API server; the manifest loader reads YAML files for
// local development. Both return a Kubernetes NotFound error for absent
// resources so reconcilers handle deletion uniformly.
type Loader interface {
	LoadPlatform(ctx context.Context, namespace, name string) (*wardenv1alpha1.Platform, error)
	LoadBackup(ctx context.Context, namespace, name string) (*wardenv1alpha1.PlatformBackup, error)
	LoadRestore(ctx context.Context, namespace, name string) (*wardenv1alpha1.PlatformRestore, error)
}

// KubernetesLoader reads resources through a controller-runtime client.
type KubernetesLoader struct {
	Client client.Client
}

func (l *KubernetesLoader) LoadPlatform(ctx context.Context, namespace, name string) (*wardenv1alpha1.Platform, error) {
	var p wardenv1alpha1.Platform
	if err := l.Client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (l *KubernetesLoader) LoadBackup(ctx context.Context, namespace, name string) (*wardenv1alpha1.PlatformBackup, error) {
	var b wardenv1alpha1.PlatformBackup
	if err := l.Client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (l *KubernetesLoader) LoadRestore(ctx context.Context, namespace, name string) (*wardenv1alpha1.PlatformRestore, error) {
	var r wardenv1alpha1.PlatformRestore
	if err := l.Client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ManifestLoader reads resources from the manifest directory layout the
// filesystem detector watches: <base>/<type dir>/<name>.yaml.
type ManifestLoader struct {
	BasePath string
}

func (l *ManifestLoader) LoadPlatform(ctx context.Context, namespace, name string) (*wardenv1alpha1.Platform, error) {
	var p wardenv1alpha1.Platform
	if err := l.load(ResourceTypePlatform, name, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (l *ManifestLoader) LoadBackup(ctx context.Context, namespace, name string) (*wardenv1alpha1.PlatformBackup, error) {
	var b wardenv1alpha1.PlatformBackup
	if err := l.load(ResourceTypePlatformBackup, name, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (l *ManifestLoader) LoadRestore(ctx context.Context, namespace, name string) (*wardenv1alpha1.PlatformRestore, error) {
	var r wardenv1alpha1.PlatformRestore
	if err := l.load(ResourceTypePlatformRestore, name, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (l *ManifestLoader) load(resourceType ResourceType, name string, into interface{}) error {
	dirName, ok := manifestDirs[resourceType]
	if !ok {
		return fmt.Errorf("no manifest directory for %s", resourceType)
	}

	path := filepath.Join(l.BasePath, dirName, name+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		path = filepath.Join(l.BasePath, dirName, name+".yml")
		data, err = os.ReadFile(path)
	}
	if os.IsNotExist(err) {
		return apierrors.NewNotFound(schema.GroupResource{
			Group:    wardenv1alpha1.GroupVersion.Group,
			Resource: dirName,
		}, name)
	}
	if err != nil {
		return fmt.Errorf("reading manifest %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return nil
}
