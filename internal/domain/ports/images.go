package ports

import "context"

// ImageLoader resolves an avatar reference to image data.
type ImageLoader interface {
	// GetImageData returns the image as a base64 data URI, or "" when the
	// reference is empty.
	GetImageData(ctx context.Context, avatarRef string) (string, error)
}

// AvatarCache drops cached image data for a reference whose content changed.
type AvatarCache interface {
	Forget(avatarRef string)
}
