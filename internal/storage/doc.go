// Package storage abstracts backup artifact stores behind the Target
// interface. Four backends are provided: local filesystem, AWS S3 (and
// S3-compatible endpoints like MinIO), Azure Blob, and Google Cloud
// Storage. The factory in NewTarget dispatches on the storage type carried
// by a platform's backup policy.
//
// Targets stream artifact bodies; nothing in this package buffers a whole
// artifact in memory. Secret material is resolved by the caller and handed
// in as Credentials; this package never reads Kubernetes Secrets itself.
package storage
