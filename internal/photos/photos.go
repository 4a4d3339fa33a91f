// Package photos abstracts the device camera used to attach pictures to a
// report draft.
package photos

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned when the user declines camera access.
// Recoverable: the next explicit capture attempt prompts again.
var ErrPermissionDenied = errors.New("camera permission denied")

// PermissionDeniedMessage is the user-facing warning for a declined prompt.
const PermissionDeniedMessage = "Camera permission denied. Please enable camera access in settings."

// CameraAPI is the device camera contract.
type CameraAPI interface {
	// RequestPermission prompts for camera access when needed.
	RequestPermission(ctx context.Context) (granted bool, err error)
	// Capture opens the camera. cancelled is true when the user backed
	// out; then uri is empty and err is nil.
	Capture(ctx context.Context) (uri string, cancelled bool, err error)
}

// Take requests permission and captures one image. A cancelled capture
// returns ("", nil); a declined permission returns ErrPermissionDenied.
func Take(ctx context.Context, cam CameraAPI) (string, error) {
	granted, err := cam.RequestPermission(ctx)
	if err != nil {
		return "", err
	}
	if !granted {
		return "", ErrPermissionDenied
	}

	uri, cancelled, err := cam.Capture(ctx)
	if err != nil {
		return "", err
	}
	if cancelled {
		return "", nil
	}
	return uri, nil
}

// Roll is the ordered photo list attached to a draft.
type Roll struct {
	uris []string
}

// Add appends a captured photo reference.
func (r *Roll) Add(uri string) {
	r.uris = append(r.uris, uri)
}

// Remove drops the photo at index i. Out-of-range indices are a no-op.
func (r *Roll) Remove(i int) {
	if i < 0 || i >= len(r.uris) {
		return
	}
	r.uris = append(r.uris[:i], r.uris[i+1:]...)
}

// URIs returns a copy of the photo references in capture order.
func (r *Roll) URIs() []string {
	out := make([]string, len(r.uris))
	copy(out, r.uris)
	return out
}

// Len returns the number of attached photos.
func (r *Roll) Len() int {
	return len(r.uris)
}
