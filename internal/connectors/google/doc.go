// Package google provides shared infrastructure for the Google Drive connector.
//
// It contains:
//   - token sources built from a saved OAuth token or a service account key
//   - the Drive service factory
//   - error mapping for common Google API failures (401, 403, 404, 429)
//   - a token bucket rate limiter with 429 backoff
//
// # Usage
//
//	ts, err := google.NewTokenSource(ctx, creds)
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// Only https://www.googleapis.com/auth/drive.readonly is requested.
package google
