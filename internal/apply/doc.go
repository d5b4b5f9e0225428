// Package apply converges rendered Kubernetes objects onto the cluster.
// An apply pass is idempotent: re-applying an already-converged set issues
// zero writes. Mutation counts are reported so the reconciler can decide
// whether the cluster changed under it.
package apply
