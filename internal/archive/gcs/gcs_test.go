package gcs

import (
	"context"
	"testing"
)

func TestNewArchiver_MissingBucket(t *testing.T) {
	if _, err := NewArchiver(context.Background(), "  ", nil, nil); err == nil {
		t.Error("expected error for missing bucket")
	}
}
