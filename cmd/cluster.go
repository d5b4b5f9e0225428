package cmd

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"warden/internal/reconciler"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// newClusterClient builds a cluster client with the warden types registered.
// Used by the read-only and trigger commands that talk to the cluster
// directly instead of going through a running operator.
func newClusterClient() (client.Client, error) {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(wardenv1alpha1.AddToScheme(scheme))

	restConfig, err := reconciler.GetRestConfig()
	if err != nil {
		return nil, fmt.Errorf("resolving cluster access: %w", err)
	}
	c, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("creating cluster client: %w", err)
	}
	return c, nil
}
