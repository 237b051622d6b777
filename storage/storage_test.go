package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("boom")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = body
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	if _, ok := f.objects[key]; !ok {
		return nil, errors.New("NoSuchKey")
	}
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	api := newFakeAPI()
	b := newBucket(api, "media", "https://cdn.example.com/")
	b.now = func() time.Time { return time.UnixMilli(1712345678901) }

	up, err := b.Upload(context.Background(), Object{Name: "Photo.JPG", ContentType: "image/jpeg", Body: []byte("img")}, "")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^uploads/1712345678901-[0-9a-f]{8}\.jpg$`), up.Key)
	assert.Equal(t, "https://cdn.example.com/"+up.Key, up.URL)
	assert.Equal(t, []byte("img"), api.objects[up.Key])
	assert.Equal(t, "image/jpeg", api.types[up.Key])

	up, err = b.Upload(context.Background(), Object{Name: "noext", Body: nil}, "/profile-photos/")
	require.NoError(t, err)
	assert.Regexp(t, `^profile-photos/\d+-[0-9a-f]{8}\.bin$`, up.Key)
}

func TestUploadFailure(t *testing.T) {
	api := newFakeAPI()
	api.failPut = true
	_, err := newBucket(api, "media", "https://cdn.example.com").Upload(context.Background(), Object{Name: "a.png"}, FolderUploads)
	assert.Error(t, err)
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://pub.r2.dev/projects/images/a.jpg", "projects/images/a.jpg", true},
		{"https://cdn.example.com/uploads/b.png?x=1", "uploads/b.png", true},
		{"uploads/c.jpg", "uploads/c.jpg", true},
		{"/uploads/c.jpg", "uploads/c.jpg", true},
		{"https://cdn.example.com/", "", false},
		{"http://[::1", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		key, ok := KeyFromURL(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, key, tt.in)
	}
}

func TestDeleteAll(t *testing.T) {
	api := newFakeAPI()
	api.objects["a.jpg"] = nil
	api.objects["uploads/b.jpg"] = nil
	b := newBucket(api, "media", "https://cdn.example.com")

	deleted, failed := b.DeleteAll(context.Background(), []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/uploads/b.jpg",
		"https://cdn.example.com/missing.jpg",
		"",
	})
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 2, failed)
	assert.Empty(t, api.objects)
}

func TestConfigAndPublicHost(t *testing.T) {
	_, err := New(context.Background(), Config{Bucket: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	b := newBucket(newFakeAPI(), "media", "https://cdn.example.com/")
	assert.Equal(t, "cdn.example.com", b.PublicHost())
}
