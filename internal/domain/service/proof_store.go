package service

import "context"

// ProofStore persists payment-proof media and other generated images.
type ProofStore interface {
	// Store downloads the provider-hosted media and writes it to the proof
	// bucket, returning the public URL the admin dashboard can render.
	Store(ctx context.Context, phone string, mediaURL string) (string, error)

	// StoreImage writes raw image bytes under the key and returns the public
	// URL, used for generated assets like cluster invite QR codes.
	StoreImage(ctx context.Context, key string, data []byte) (string, error)
}
