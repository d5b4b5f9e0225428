package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	toolscache "k8s.io/client-go/tools/cache"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
	"warden/pkg/logging"
)

// KubernetesDetector watches the warden CRDs through controller-runtime
// informers and emits a ChangeEvent for every create, update, and
// delete seen by the watch.
type KubernetesDetector struct {
	mu sync.RWMutex

	restConfig *rest.Config

	// namespace limits the watch; empty watches all namespaces.
	namespace string

	cache  cache.Cache
	scheme *runtime.Scheme

	resourceTypes map[ResourceType]bool

	changeChan chan<- ChangeEvent

	ctx        context.Context
	cancelFunc context.CancelFunc
	running    bool

	registrations []toolscache.ResourceEventHandlerRegistration
}

// NewKubernetesDetector creates a detector watching the given namespace.
func NewKubernetesDetector(restConfig *rest.Config, namespace string) (*KubernetesDetector, error) {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(wardenv1alpha1.AddToScheme(scheme))

	return &KubernetesDetector{
		restConfig:    restConfig,
		namespace:     namespace,
		scheme:        scheme,
		resourceTypes: make(map[ResourceType]bool),
	}, nil
}

// Start creates the cache, registers informers for all added resource
// types, and blocks until the initial sync completes.
func (d *KubernetesDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.ctx, d.cancelFunc = context.WithCancel(ctx)
	d.changeChan = changes
	d.running = true
	d.mu.Unlock()

	cacheOpts := cache.Options{Scheme: d.scheme}
	if d.namespace != "" {
		cacheOpts.DefaultNamespaces = map[string]cache.Config{
			d.namespace: {},
		}
	}

	c, err := cache.New(d.restConfig, cacheOpts)
	if err != nil {
		d.markStopped()
		return fmt.Errorf("creating cache: %w", err)
	}

	d.mu.Lock()
	d.cache = c
	types := make([]ResourceType, 0, len(d.resourceTypes))
	for rt := range d.resourceTypes {
		types = append(types, rt)
	}
	d.mu.Unlock()

	for _, rt := range types {
		if err := d.setupInformer(rt); err != nil {
			d.markStopped()
			return fmt.Errorf("setting up informer for %s: %w", rt, err)
		}
	}

	go func() {
		if err := d.cache.Start(d.ctx); err != nil {
			logging.Error("KubernetesDetector", err, "Cache stopped with error")
		}
	}()

	if !d.cache.WaitForCacheSync(d.ctx) {
		d.markStopped()
		return fmt.Errorf("cache failed to sync")
	}

	logging.Info("KubernetesDetector", "Watching resources in %s", d.namespaceDisplay())
	return nil
}

func (d *KubernetesDetector) markStopped() {
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
}

func (d *KubernetesDetector) setupInformer(resourceType ResourceType) error {
	obj, err := objectForType(resourceType)
	if err != nil {
		return err
	}

	informer, err := d.cache.GetInformer(d.ctx, obj)
	if err != nil {
		return fmt.Errorf("getting informer for %s: %w", resourceType, err)
	}

	registration, err := informer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			d.emit(resourceType, OperationCreate, obj)
		},
		UpdateFunc: func(oldObj, newObj interface{}) {
			d.emit(resourceType, OperationUpdate, newObj)
		},
		DeleteFunc: func(obj interface{}) {
			// Objects deleted while the operator was down arrive as
			// tombstones wrapping the last known state.
			if tombstone, ok := obj.(toolscache.DeletedFinalStateUnknown); ok {
				obj = tombstone.Obj
			}
			d.emit(resourceType, OperationDelete, obj)
		},
	})
	if err != nil {
		return fmt.Errorf("adding event handler for %s: %w", resourceType, err)
	}

	d.mu.Lock()
	d.registrations = append(d.registrations, registration)
	d.mu.Unlock()

	logging.Debug("KubernetesDetector", "Informer registered for %s", resourceType)
	return nil
}

func objectForType(resourceType ResourceType) (client.Object, error) {
	switch resourceType {
	case ResourceTypePlatform:
		return &wardenv1alpha1.Platform{}, nil
	case ResourceTypePlatformBackup:
		return &wardenv1alpha1.PlatformBackup{}, nil
	case ResourceTypePlatformRestore:
		return &wardenv1alpha1.PlatformRestore{}, nil
	default:
		return nil, fmt.Errorf("unsupported resource type: %s", resourceType)
	}
}

func (d *KubernetesDetector) emit(resourceType ResourceType, op ChangeOperation, obj interface{}) {
	clientObj, ok := obj.(client.Object)
	if !ok {
		logging.Warn("KubernetesDetector", "Unexpected object type in %s event for %s", op, resourceType)
		return
	}

	event := ChangeEvent{
		Type:      resourceType,
		Name:      clientObj.GetName(),
		Namespace: clientObj.GetNamespace(),
		Operation: op,
		Timestamp: time.Now(),
		Source:    SourceKubernetes,
	}

	d.mu.RLock()
	changeChan := d.changeChan
	running := d.running
	d.mu.RUnlock()

	if !running || changeChan == nil {
		return
	}

	// Never block the informer goroutine. A dropped event is repaired
	// by the periodic resync.
	select {
	case changeChan <- event:
		logging.Debug("KubernetesDetector", "Change event: %s %s %s/%s",
			event.Operation, event.Type, event.Namespace, event.Name)
	default:
		logging.Warn("KubernetesDetector", "Change channel full, dropping event for %s %s/%s",
			event.Type, event.Namespace, event.Name)
	}
}

// Stop cancels the cache and informers.
func (d *KubernetesDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}
	d.running = false

	if d.cancelFunc != nil {
		d.cancelFunc()
	}
	d.registrations = nil

	logging.Info("KubernetesDetector", "Stopped")
	return nil
}

// GetSource returns SourceKubernetes.
func (d *KubernetesDetector) GetSource() ChangeSource {
	return SourceKubernetes
}

// AddResourceType registers a resource type with the watch. When the
// detector is already running the informer is added immediately.
func (d *KubernetesDetector) AddResourceType(resourceType ResourceType) error {
	if _, err := objectForType(resourceType); err != nil {
		return err
	}

	d.mu.Lock()
	d.resourceTypes[resourceType] = true
	running := d.running
	c := d.cache
	d.mu.Unlock()

	if running && c != nil {
		return d.setupInformer(resourceType)
	}
	return nil
}

func (d *KubernetesDetector) namespaceDisplay() string {
	if d.namespace == "" {
		return "all namespaces"
	}
	return "namespace " + d.namespace
}

// GetRestConfig resolves cluster access using controller-runtime's
// standard config lookup (in-cluster, then kubeconfig).
func GetRestConfig() (*rest.Config, error) {
	return ctrl.GetConfig()
}
