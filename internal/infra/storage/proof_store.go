// Package storage persists payment-proof media and generated images in a
// gocloud.dev blob bucket, so the backing store is swappable through the
// bucket URL alone.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"clustercart/config"
	"clustercart/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// maxProofBytes caps a single proof download.
const maxProofBytes = 10 << 20

// Params defines the dependencies for the blob proof store.
type Params struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Lifecycle fx.Lifecycle
}

type blobProofStore struct {
	bucket       *blob.Bucket
	publicPrefix string
	twilioSID    string
	twilioToken  string
	client       *http.Client
	logger       *slog.Logger
}

// NewBlobProofStore is the constructor for blobProofStore.
func NewBlobProofStore(params Params) (service.ProofStore, error) {
	cfg := params.Config.Proofs
	if cfg == nil || cfg.BucketURL == "" {
		return nil, errors.New("proofs bucket url is required")
	}

	bucket, err := blob.OpenBucket(context.Background(), cfg.BucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open proofs bucket")
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return bucket.Close()
		},
	})

	store := &blobProofStore{
		bucket:       bucket,
		publicPrefix: strings.TrimSuffix(cfg.PublicPrefix, "/"),
		client:       &http.Client{},
		logger:       params.Logger,
	}
	if twilio := params.Config.Twilio; twilio != nil {
		store.twilioSID = twilio.AccountSID
		store.twilioToken = twilio.AuthToken
	}

	return store, nil
}

// Store downloads the provider-hosted media and writes it to the proof
// bucket. Twilio media URLs require basic auth, so the download carries the
// account credentials when they are configured.
func (s *blobProofStore) Store(ctx context.Context, phone string, mediaURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create media request")
	}
	if s.twilioSID != "" {
		req.SetBasicAuth(s.twilioSID, s.twilioToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to download media")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("media download failed (%d)", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxProofBytes))
	if err != nil {
		return "", errors.Wrap(err, "failed to read media body")
	}

	key := fmt.Sprintf("proofs/%s/%s%s", sanitizePhone(phone), uuid.NewString(), extensionFor(resp.Header.Get("Content-Type")))

	return s.write(ctx, key, data, resp.Header.Get("Content-Type"))
}

// StoreImage writes raw image bytes under the key and returns the public URL.
func (s *blobProofStore) StoreImage(ctx context.Context, key string, data []byte) (string, error) {
	return s.write(ctx, key, data, contentTypeFor(key))
}

func (s *blobProofStore) write(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return "", errors.Wrapf(err, "failed to write blob %s", key)
	}

	if s.publicPrefix == "" {
		return key, nil
	}

	return s.publicPrefix + "/" + key, nil
}

func sanitizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}

	return b.String()
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}

func contentTypeFor(key string) string {
	switch path.Ext(key) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
