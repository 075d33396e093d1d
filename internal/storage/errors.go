package storage

import "fmt"

// UploadError reports a rejected object store request, including whatever
// diagnostic body the server returned.
type UploadError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("object store upload failed for %s: %d %s", e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("object store upload failed for %s: %d", e.Path, e.StatusCode)
}
