package bolt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mrops-br/instafiche/internal/app/dto"
	"github.com/mrops-br/instafiche/internal/domain"
	bbolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Bucket groups the keys of the editor's local storage.
	Bucket = "localStorage"

	// SnapshotKey holds the JSON array of product records.
	SnapshotKey = "instaFicheProducts"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SnapshotStore persists the product collection as one JSON value in a
// bbolt file
type SnapshotStore struct {
	db     *bbolt.DB
	tracer trace.Tracer
	logger *slog.Logger
}

// Open opens (or creates) the database file at path
func Open(path string, tracer trace.Tracer, logger *slog.Logger) (*SnapshotStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(Bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &SnapshotStore{db: db, tracer: tracer, logger: logger}, nil
}

// Close releases the database file
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Load decodes the stored snapshot
func (s *SnapshotStore) Load(ctx context.Context) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "SnapshotStore.Load")
	defer span.End()

	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(Bucket)).Get([]byte(SnapshotKey)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Read failed")
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if raw == nil {
		span.SetStatus(codes.Ok, "No snapshot")
		return nil, domain.ErrSnapshotNotFound
	}

	var records []dto.ProductRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Decode failed")
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if records == nil {
		return nil, fmt.Errorf("failed to decode snapshot: %s is not an array", SnapshotKey)
	}

	span.SetAttributes(
		attribute.Int("product.count", len(records)),
		attribute.Int("snapshot.bytes", len(raw)),
	)
	s.logger.DebugContext(ctx, "Snapshot loaded",
		slog.Int("count", len(records)),
		slog.Int("bytes", len(raw)),
	)

	span.SetStatus(codes.Ok, "Snapshot loaded")
	return dto.FromProductRecordList(records), nil
}

// Save overwrites the stored snapshot with products
func (s *SnapshotStore) Save(ctx context.Context, products []domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "SnapshotStore.Save")
	defer span.End()

	raw, err := json.Marshal(dto.ToProductRecordList(products))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Encode failed")
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(Bucket)).Put([]byte(SnapshotKey), raw)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Write failed")
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	span.SetAttributes(
		attribute.Int("product.count", len(products)),
		attribute.Int("snapshot.bytes", len(raw)),
	)
	s.logger.DebugContext(ctx, "Snapshot saved",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Snapshot saved")
	return nil
}

// PutRaw stores raw bytes under the snapshot key. Used to seed fixtures.
func (s *SnapshotStore) PutRaw(raw []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(Bucket)).Put([]byte(SnapshotKey), raw)
	})
}
