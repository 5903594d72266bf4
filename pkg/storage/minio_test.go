package storage

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingGetter struct {
	err    error
	bucket string
	object string
}

func (f *failingGetter) GetObject(_ context.Context, bucket, object string, _ minio.GetObjectOptions) (*minio.Object, error) {
	f.bucket, f.object = bucket, object
	return nil, f.err
}

func TestObjectOpenerMapsMissingObject(t *testing.T) {
	getter := &failingGetter{err: minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}}
	o := &ObjectOpener{client: getter}

	_, err := o.Open(context.Background(), "minio://chats/exports/d1.csv")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "chats", getter.bucket)
	assert.Equal(t, "exports/d1.csv", getter.object)
}

func TestObjectOpenerOtherErrors(t *testing.T) {
	o := &ObjectOpener{client: &failingGetter{err: errors.New("connection refused")}}

	_, err := o.Open(context.Background(), "minio://chats/d1.csv")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestObjectOpenerRejectsBadLocation(t *testing.T) {
	o := &ObjectOpener{client: &failingGetter{}}

	_, err := o.Open(context.Background(), "minio://only-bucket")
	assert.Error(t, err)
}

func TestParseObjectLocation(t *testing.T) {
	bucket, object, err := ParseObjectLocation("minio://chats/exports/d1.csv")
	require.NoError(t, err)
	assert.Equal(t, "chats", bucket)
	assert.Equal(t, "exports/d1.csv", object)

	_, _, err = ParseObjectLocation("minio://chats")
	assert.Error(t, err)

	assert.True(t, IsObjectLocation("minio://chats/d1.csv"))
	assert.False(t, IsObjectLocation("data/d1.csv"))
}
