package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		assetPath string
		want      string
	}{
		{"simple", "vail", "resorts/vail/dining-venues.json"},
		{"nested", "co/beaver-creek", "resorts/co/beaver-creek/dining-venues.json"},
		{"empty", "", "resorts/dining-venues.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PathFor(tt.assetPath))
		})
	}
}

type fakeS3 struct {
	objects map[string][]byte

	lastContentType string
	headErr         error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[*in.Key] = data
	if in.ContentType != nil {
		f.lastContentType = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{}
	store := &S3Store{client: fake, bucket: "dining-audit"}
	ctx := context.Background()

	key := PathFor("vail")
	require.NoError(t, store.Put(ctx, key, []byte(`{"venues": []}`)))
	assert.Equal(t, "application/json", fake.lastContentType)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"venues": []}`, string(data))
}

func TestS3StoreExistsNotFound(t *testing.T) {
	t.Parallel()

	store := &S3Store{client: &fakeS3{}, bucket: "dining-audit"}

	exists, err := store.Exists(context.Background(), PathFor("nowhere"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3StoreExistsError(t *testing.T) {
	t.Parallel()

	store := &S3Store{client: &fakeS3{headErr: assert.AnError}, bucket: "dining-audit"}

	_, err := store.Exists(context.Background(), PathFor("vail"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blob: head")
}
