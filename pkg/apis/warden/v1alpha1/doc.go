// Package v1alpha1 contains API Schema definitions for the warden v1alpha1 API group.
//
// The group defines three Custom Resource Definitions:
//
//   - Platform: the desired state of one managed deployment of the
//     four-tier application (PostgreSQL, Redis, web tier, task tier),
//     including its autoscaling and backup policies.
//   - PlatformBackup: a single backup attempt against a Platform.
//   - PlatformRestore: a restore of a Platform from a named backup.
//
// Example:
//
//	apiVersion: warden.dev/v1alpha1
//	kind: Platform
//	metadata:
//	  name: demo
//	  namespace: default
//	spec:
//	  webReplicas: 1
//	  taskReplicas: 3
//	  autoscaling:
//	    enabled: true
//	    minTaskReplicas: 1
//	    maxTaskReplicas: 10
//	    maxForksPerTask: 50
//	  backup:
//	    storageType: s3
//	    s3:
//	      bucket: demo-backups
//	    schedule: "0 2 * * *"
//	    compress: true
//
// +kubebuilder:object:generate=true
// +groupName=warden.dev
package v1alpha1
