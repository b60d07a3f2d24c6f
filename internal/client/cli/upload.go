package cli

import (
	"context"
	"log"
	"os"

	"github.com/postbridge/postbridge/internal/netx"
)

// Upload reserves a storage key, uploads the file behind path to the
// returned presigned URL, and prints the key. The key can then be attached
// to a post as an image.
func (a *App) Upload(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	key, url, err := a.api.NewMediaUpload(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if err := netx.UploadToS3PresignedURL(ctx, url, data); err != nil {
		log.Printf("error: %v", err)
		return err
	}

	printlnFn("Uploaded. Attach with key:", key)
	return nil
}
