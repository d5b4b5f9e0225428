package health

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// DeploymentProbe reports healthy when a Deployment's ready replicas match
// its desired count.
type DeploymentProbe struct {
	Client    client.Client
	Subsystem string
	Namespace string
	Target    string
}

func (p *DeploymentProbe) Name() string { return p.Subsystem }

func (p *DeploymentProbe) Check(ctx context.Context) Status {
	var dep appsv1.Deployment
	err := p.Client.Get(ctx, types.NamespacedName{Namespace: p.Namespace, Name: p.Target}, &dep)
	if apierrors.IsNotFound(err) {
		return Status{Healthy: false, Detail: fmt.Sprintf("deployment %s not found", p.Target)}
	}
	if err != nil {
		return Status{Healthy: false, Detail: fmt.Sprintf("get deployment %s: %v", p.Target, err)}
	}

	desired := int32(1)
	if dep.Spec.Replicas != nil {
		desired = *dep.Spec.Replicas
	}
	if dep.Status.ReadyReplicas < desired {
		return Status{
			Healthy: false,
			Detail:  fmt.Sprintf("%d/%d replicas ready", dep.Status.ReadyReplicas, desired),
		}
	}
	return Status{Healthy: true, Detail: fmt.Sprintf("%d/%d replicas ready", dep.Status.ReadyReplicas, desired)}
}

// StatefulSetProbe reports healthy when a StatefulSet's ready replicas
// match its desired count. Used for the database tier.
type StatefulSetProbe struct {
	Client    client.Client
	Subsystem string
	Namespace string
	Target    string
}

func (p *StatefulSetProbe) Name() string { return p.Subsystem }

func (p *StatefulSetProbe) Check(ctx context.Context) Status {
	var sts appsv1.StatefulSet
	err := p.Client.Get(ctx, types.NamespacedName{Namespace: p.Namespace, Name: p.Target}, &sts)
	if apierrors.IsNotFound(err) {
		return Status{Healthy: false, Detail: fmt.Sprintf("statefulset %s not found", p.Target)}
	}
	if err != nil {
		return Status{Healthy: false, Detail: fmt.Sprintf("get statefulset %s: %v", p.Target, err)}
	}

	desired := int32(1)
	if sts.Spec.Replicas != nil {
		desired = *sts.Spec.Replicas
	}
	if sts.Status.ReadyReplicas < desired {
		return Status{
			Healthy: false,
			Detail:  fmt.Sprintf("%d/%d replicas ready", sts.Status.ReadyReplicas, desired),
		}
	}
	return Status{Healthy: true, Detail: fmt.Sprintf("%d/%d replicas ready", sts.Status.ReadyReplicas, desired)}
}
