package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// Download is the generated image file.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DataURI returns the image as a data URI.
func (d *Download) DataURI() string {
	return "data:" + d.ContentType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}

// Sink hands a finished download to the user.
type Sink interface {
	Deliver(ctx context.Context, d *Download) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, d *Download) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, d *Download) error {
	return f(ctx, d)
}

// DirSink writes downloads into a directory.
type DirSink struct {
	Dir string
}

// Deliver writes d under its file name, replacing any existing file.
func (s DirSink) Deliver(_ context.Context, d *Download) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(d.Filename))
	if err := os.WriteFile(path, d.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
