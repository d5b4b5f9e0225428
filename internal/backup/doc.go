// Package backup implements the backup and restore pipelines and the
// retention pruner.
//
// A backup run moves through dump, compress, optional encrypt, upload,
// and verify; its Record advances monotonically and ends in Complete or
// Failed. Verification re-reads the uploaded artifact and compares size
// and sha256; a mismatch fails the run but never deletes the artifact.
//
// The restore path is symmetric: download, verify against the recorded
// checksum, decrypt when the artifact name carries the cipher suffix,
// unpack, and load.
//
// The Pruner applies either the simple count/age policy or the bucketed
// daily/weekly/monthly/yearly policy, and always retains the most recent
// artifact regardless of policy.
package backup
