package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps blobs in a MongoDB GridFS bucket. References are file ObjectID hex strings.
type GridFSStore struct {
	client     *mongo.Client
	db         *mongo.Database
	bucketName string
}

// NewGridFSStore connects to MongoDB and verifies the connection.
func NewGridFSStore(ctx context.Context, uri, database, bucket string) (*GridFSStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return &GridFSStore{client: client, db: client.Database(database), bucketName: bucket}, nil
}

// bucket returns a fresh bucket handle carrying the context deadline.
// Handles are cheap; deadlines are per handle, so they are not shared between calls.
func (s *GridFSStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucketName))
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(dl); err != nil {
			return nil, err
		}
		if err := b.SetWriteDeadline(dl); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Put uploads data as a new GridFS file named key.
func (s *GridFSStore) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return Object{}, err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	id, err := b.UploadFromStream(key, bytes.NewReader(data), opts)
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload %s to GridFS: %w", key, err)
	}
	return Object{Ref: id.Hex(), ContentType: contentType, Size: int64(len(data))}, nil
}

// Get opens a download stream for ref.
func (s *GridFSStore) Get(ctx context.Context, ref string) (io.ReadCloser, Object, error) {
	oid, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, Object{}, fmt.Errorf("blob %s: %w", ref, ErrNotFound)
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, Object{}, err
	}
	stream, err := b.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, Object{}, fmt.Errorf("blob %s: %w", ref, ErrNotFound)
		}
		return nil, Object{}, fmt.Errorf("failed to open GridFS file %s: %w", ref, err)
	}
	obj := Object{Ref: ref}
	if f := stream.GetFile(); f != nil {
		obj.Size = f.Length
		if len(f.Metadata) > 0 {
			if ct, ok := f.Metadata.Lookup("contentType").StringValueOK(); ok {
				obj.ContentType = ct
			}
		}
	}
	return stream, obj, nil
}

// Delete removes the file and its chunks.
func (s *GridFSStore) Delete(ctx context.Context, ref string) error {
	oid, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if err := b.Delete(oid); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("failed to delete GridFS file %s: %w", ref, err)
	}
	return nil
}

// Close disconnects the Mongo client.
func (s *GridFSStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
