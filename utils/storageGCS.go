package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient initializes a Google Cloud Storage client.
// Prefers ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
// For local use, explicit JSON can be provided via GCS_CREDENTIALS_JSON.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func settlementBucket() (string, error) {
	bucket := strings.TrimSpace(os.Getenv("GCS_SETTLEMENT_BUCKET"))
	if bucket == "" {
		return "", errors.New("GCS_SETTLEMENT_BUCKET is required")
	}
	return bucket, nil
}

// ArchiveSettlementFile stores the raw settlement file so a run can be
// replayed later. Returns the object name.
func ArchiveSettlementFile(ctx context.Context, objectName string, data []byte) error {
	bucketName, err := settlementBucket()
	if err != nil {
		return err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/plain"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write settlement object %q: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close settlement object %q: %w", objectName, err)
	}
	return nil
}

// ReadSettlementFile fetches a previously archived settlement file.
func ReadSettlementFile(ctx context.Context, objectName string) ([]byte, error) {
	bucketName, err := settlementBucket()
	if err != nil {
		return nil, err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open settlement object %q: %w", objectName, err)
	}
	defer r.Close()

	return io.ReadAll(r)
}
