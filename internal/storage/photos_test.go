package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"finwise/internal/apperr"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.in, f.body = in, b
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, "photos", "profile-photos/")

	ref, err := store.Put(context.Background(), "7/me.png", "image/png", bytes.NewReader([]byte("img")), 3)
	require.NoError(t, err)
	require.Equal(t, "s3://photos/profile-photos/7/me.png", ref)
	require.Equal(t, "profile-photos/7/me.png", aws.ToString(fake.in.Key))
	require.Equal(t, "image/png", aws.ToString(fake.in.ContentType))
	require.EqualValues(t, 3, aws.ToInt64(fake.in.ContentLength))
	require.Equal(t, []byte("img"), fake.body)
}

func TestS3Store_PutFailureIsUnavailable(t *testing.T) {
	store := newS3Store(&fakeS3{err: errors.New("connection reset")}, "photos", "")
	_, err := store.Put(context.Background(), "k.png", "image/png", bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestDirStore_Put(t *testing.T) {
	root := t.TempDir()
	store, err := NewDirStore(root)
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), "7/me.png", "image/png", bytes.NewReader([]byte("0123456789")), 4)
	require.NoError(t, err)
	require.Equal(t, "7/me.png", ref)

	got, err := os.ReadFile(filepath.Join(root, "7", "me.png"))
	require.NoError(t, err)
	require.Equal(t, "0123", string(got))
}

func TestDirStore_StaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewDirStore(root)
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), "../../escape.png", "image/png", bytes.NewReader([]byte("x")), 1)
	require.NoError(t, err)
	require.Equal(t, "escape.png", ref)
	_, err = os.Stat(filepath.Join(root, "escape.png"))
	require.NoError(t, err)
}
