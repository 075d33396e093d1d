// Package storage talks to the S3-compatible object store holding archive
// uploads, cover images, and audio files.
//
// Requests are signed with a self-contained AWS Signature Version 4
// implementation so the daemon works against MinIO without a cloud SDK.
// The Client wraps signing plus HTTP transport and reports transfer
// metrics for throughput telemetry.
package storage
