// Package render builds the Kubernetes objects that make up one platform:
// a Postgres StatefulSet with its volume claim, a Redis Deployment, the
// web tier with its Service and optional Ingress, and the task tier.
// Rendering is a pure data transform; nothing here talks to the cluster.
package render
