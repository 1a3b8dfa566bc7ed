package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/cardclash/battle-sim/internal/game"
)

// GCSSink stores gzip-compressed replays in a Cloud Storage bucket.
type GCSSink struct {
	client     *storage.Client
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
}

// NewGCSSink creates a sink for bucketName. Objects are written under prefix.
func NewGCSSink(ctx context.Context, bucketName, prefix string, opts ...option.ClientOption) (*GCSSink, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSSink{
		client:     client,
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
	}, nil
}

// Close releases the storage client.
func (g *GCSSink) Close() error { return g.client.Close() }

func (g *GCSSink) Name() string { return "gcs" }

func (g *GCSSink) objectName(gameID string) string {
	return path.Join(g.prefix, game.ReplayFileName(gameID, true))
}

func (g *GCSSink) Store(ctx context.Context, r *game.Replay) (string, error) {
	name := g.objectName(r.GameID)
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "application/json"
	w.ContentEncoding = "gzip"
	w.Metadata = map[string]string{
		"gameId":   r.GameID,
		"seed":     r.Seed,
		"winner":   r.Summary.Winner,
		"checksum": r.Checksum,
	}
	if err := r.Encode(w, true); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucketName, name), nil
}

func (g *GCSSink) Load(ctx context.Context, gameID string) (*game.Replay, error) {
	reader, err := g.bucket.Object(g.objectName(gameID)).ReadCompressed(true).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return game.DecodeReplay(&buf, true)
}

func (g *GCSSink) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if g.prefix != "" {
		prefix = g.prefix + "/"
	}
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	var ids []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if id, ok := gameIDFromFile(path.Base(attrs.Name)); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
