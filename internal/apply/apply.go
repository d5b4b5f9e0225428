package apply

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"warden/internal/operrors"
	"warden/pkg/logging"
)

// Result counts what one apply pass did to the cluster.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
}

// Mutations is the number of writes issued.
func (r Result) Mutations() int {
	return r.Created + r.Updated
}

func (r Result) add(other Result) Result {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
	return r
}

// Applier converges rendered objects onto the cluster with the minimum
// number of writes. Every applied object is owned by the platform that
// rendered it, so deletion cascades.
type Applier struct {
	client client.Client
	scheme *runtime.Scheme
}

func NewApplier(c client.Client, scheme *runtime.Scheme) *Applier {
	return &Applier{client: c, scheme: scheme}
}

// Apply converges each object in order. Objects that already match the
// desired state are left untouched. Update conflicts are retried with a
// fresh read; persistent conflicts surface as ConflictError.
func (a *Applier) Apply(ctx context.Context, owner client.Object, objs []client.Object) (Result, error) {
	var total Result
	for _, obj := range objs {
		res, err := a.applyOne(ctx, owner, obj)
		total = total.add(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (a *Applier) applyOne(ctx context.Context, owner client.Object, desired client.Object) (Result, error) {
	if err := controllerutil.SetControllerReference(owner, desired, a.scheme); err != nil {
		return Result{}, fmt.Errorf("setting owner reference on %s: %w", desired.GetName(), err)
	}

	key := types.NamespacedName{Namespace: desired.GetNamespace(), Name: desired.GetName()}

	gvk, err := apiutil.GVKForObject(desired, a.scheme)
	if err != nil {
		return Result{}, fmt.Errorf("resolving kind for %T: %w", desired, err)
	}
	blank, err := a.scheme.New(gvk)
	if err != nil {
		return Result{}, fmt.Errorf("instantiating %s: %w", gvk.Kind, err)
	}
	existing := blank.(client.Object)

	err = a.client.Get(ctx, key, existing)
	if apierrors.IsNotFound(err) {
		if err := a.client.Create(ctx, desired); err != nil {
			return Result{}, operrors.NewTransient(fmt.Sprintf("create %T %s", desired, key.Name), err)
		}
		logging.Info("Applier", "Created %T %s/%s", desired, key.Namespace, key.Name)
		return Result{Created: 1}, nil
	}
	if err != nil {
		return Result{}, operrors.NewTransient(fmt.Sprintf("get %T %s", desired, key.Name), err)
	}

	updated := false
	retryErr := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		if err := a.client.Get(ctx, key, existing); err != nil {
			return err
		}
		changed, err := merge(existing, desired)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if err := a.client.Update(ctx, existing); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if retryErr != nil {
		if apierrors.IsConflict(retryErr) {
			return Result{}, operrors.NewConflict(fmt.Sprintf("%T", desired), key.Name, retryErr)
		}
		return Result{}, operrors.NewTransient(fmt.Sprintf("update %T %s", desired, key.Name), retryErr)
	}

	if updated {
		logging.Info("Applier", "Updated %T %s/%s", desired, key.Namespace, key.Name)
		return Result{Updated: 1}, nil
	}
	return Result{Unchanged: 1}, nil
}

// merge writes the desired state into the live object and reports whether
// anything changed. Each kind carries its own merge rules; immutable
// fields stay untouched so updates never bounce off the API server.
func merge(existing, desired client.Object) (bool, error) {
	switch live := existing.(type) {
	case *appsv1.Deployment:
		want := desired.(*appsv1.Deployment)
		if equality.Semantic.DeepEqual(live.Spec, want.Spec) && labelsMatch(live, want) {
			return false, nil
		}
		live.Spec = want.Spec
		live.Labels = mergeLabels(live.Labels, want.Labels)
		return true, nil

	case *appsv1.StatefulSet:
		want := desired.(*appsv1.StatefulSet)
		// VolumeClaimTemplates and ServiceName are immutable after create.
		same := equality.Semantic.DeepEqual(live.Spec.Replicas, want.Spec.Replicas) &&
			equality.Semantic.DeepEqual(live.Spec.Template, want.Spec.Template) &&
			labelsMatch(live, want)
		if same {
			return false, nil
		}
		live.Spec.Replicas = want.Spec.Replicas
		live.Spec.Template = want.Spec.Template
		live.Labels = mergeLabels(live.Labels, want.Labels)
		return true, nil

	case *corev1.Service:
		want := desired.(*corev1.Service)
		// The API server assigns ClusterIP; carry it through the compare.
		desiredSpec := want.Spec
		desiredSpec.ClusterIP = live.Spec.ClusterIP
		desiredSpec.ClusterIPs = live.Spec.ClusterIPs
		if equality.Semantic.DeepEqual(live.Spec, desiredSpec) && labelsMatch(live, want) {
			return false, nil
		}
		live.Spec = desiredSpec
		live.Labels = mergeLabels(live.Labels, want.Labels)
		return true, nil

	case *corev1.PersistentVolumeClaim:
		// PVC specs are immutable; converging one is always a no-op.
		return false, nil

	case *corev1.Secret:
		// Secrets hold generated credentials; never overwrite existing data.
		return false, nil

	case *networkingv1.Ingress:
		want := desired.(*networkingv1.Ingress)
		if equality.Semantic.DeepEqual(live.Spec, want.Spec) && labelsMatch(live, want) {
			return false, nil
		}
		live.Spec = want.Spec
		live.Labels = mergeLabels(live.Labels, want.Labels)
		return true, nil

	default:
		return false, fmt.Errorf("no merge rule for %T", existing)
	}
}

func labelsMatch(live, want client.Object) bool {
	for k, v := range want.GetLabels() {
		if live.GetLabels()[k] != v {
			return false
		}
	}
	return true
}

func mergeLabels(live, want map[string]string) map[string]string {
	if live == nil {
		live = make(map[string]string, len(want))
	}
	for k, v := range want {
		live[k] = v
	}
	return live
}
