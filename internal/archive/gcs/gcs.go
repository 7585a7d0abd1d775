package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	goption "google.golang.org/api/option"

	ports "planner/internal/archive"
	"planner/internal/log"
)

const uploadTimeout = 2 * time.Minute

// Archiver writes statements to a Cloud Storage bucket.
type Archiver struct {
	client *storage.Client
	bucket string
	logger *log.Logger
	now    func() time.Time
}

var _ ports.StatementArchiver = (*Archiver)(nil)

// NewArchiver creates a storage client. Without credentials the client uses
// Application Default Credentials.
func NewArchiver(ctx context.Context, bucket string, credentialsJSON []byte, logger *log.Logger, opts ...goption.ClientOption) (*Archiver, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("missing archive bucket")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentArchive)

	var clientOpts []goption.ClientOption
	if len(credentialsJSON) > 0 {
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(credentialsJSON))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	logger.InfoContext(ctx, "Statement archive ready", "bucket", bucket)
	return &Archiver{client: client, bucket: bucket, logger: logger, now: time.Now}, nil
}

// Store uploads data and returns its gs:// URI.
func (a *Archiver) Store(ctx context.Context, runID, filename string, data []byte) (string, error) {
	name := ports.ObjectName(runID, filename, a.now())

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/csv"
	w.Metadata = map[string]string{"run_id": runID, "filename": filename}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload of %s: %w", name, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, name)
	a.logger.InfoContext(ctx, "Statement archived", log.FieldImportRun, runID, "uri", uri, "bytes", len(data))
	return uri, nil
}

func (a *Archiver) Close() error {
	return a.client.Close()
}
