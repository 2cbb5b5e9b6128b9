package storage

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeLabelChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

// ArtifactStore lays out run artifacts under runs/{runID}/ in a BlobStorage.
type ArtifactStore struct {
	blobs BlobStorage
	now   func() time.Time
}

// NewArtifactStore wraps blobs.
func NewArtifactStore(blobs BlobStorage) *ArtifactStore {
	return &ArtifactStore{blobs: blobs, now: time.Now}
}

// SaveScreenshot stores a PNG and returns its reference. When the backend
// cannot produce a reference the object key is returned instead.
func (a *ArtifactStore) SaveScreenshot(ctx context.Context, runID, label string, png []byte) (string, error) {
	key := ScreenshotKey(runID, label, a.now())
	if err := a.blobs.Put(ctx, key, "image/png", bytes.NewReader(png)); err != nil {
		return "", fmt.Errorf("failed to store screenshot: %w", err)
	}
	ref, err := a.blobs.Reference(ctx, key)
	if err != nil || ref == "" {
		return key, nil
	}
	return ref, nil
}

// ScreenshotKey builds the storage key for a screenshot.
func ScreenshotKey(runID, label string, at time.Time) string {
	if runID == "" {
		runID = "adhoc"
	}
	label = strings.Trim(unsafeLabelChars.ReplaceAllString(label, "_"), "_")
	if label == "" {
		label = "screenshot"
	}
	return fmt.Sprintf("runs/%s/%s-%d.png", unsafeLabelChars.ReplaceAllString(runID, "_"), label, at.UnixNano())
}
