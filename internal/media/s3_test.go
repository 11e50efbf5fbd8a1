package media

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/AnthoniusHendriyanto/patient-service/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.err
}

func TestS3Store_Upload_DataURI(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "clinic", "https://cdn.example.com/", nil)

	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	avatar, err := store.Upload(context.Background(), "data:image/png;base64,"+payload, AvatarFolder)
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	assert.Equal(t, "clinic", aws.ToString(client.puts[0].Bucket))
	assert.Equal(t, "image/png", aws.ToString(client.puts[0].ContentType))
	assert.Equal(t, []byte("png-bytes"), client.bodies[0])

	assert.True(t, strings.HasPrefix(avatar.PublicID, "avatars/"))
	assert.True(t, strings.HasSuffix(avatar.PublicID, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+avatar.PublicID, avatar.URL)
}

func TestS3Store_Upload_RemoteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Path == "/secret" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("AWS_SECRET=internal-only"))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	client := &fakeS3{}
	store := NewS3Store(client, "clinic", "https://cdn.example.com", srv.Client())

	t.Run("success", func(t *testing.T) {
		avatar, err := store.Upload(context.Background(), srv.URL+"/avatar.jpg", AvatarFolder)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(avatar.PublicID, ".jpg"))
		assert.Equal(t, []byte("jpeg-bytes"), client.bodies[len(client.bodies)-1])
	})

	t.Run("remote error", func(t *testing.T) {
		_, err := store.Upload(context.Background(), srv.URL+"/missing", AvatarFolder)
		assert.Error(t, err)
	})

	t.Run("non-image content is not stored", func(t *testing.T) {
		before := len(client.puts)
		_, err := store.Upload(context.Background(), srv.URL+"/secret", AvatarFolder)
		assert.ErrorIs(t, err, ErrUnsupportedData)
		assert.Len(t, client.puts, before)
	})
}

func TestS3Store_Upload_RefusesInternalHosts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("AWS_SECRET=internal-only"))
	}))
	defer srv.Close()

	client := &fakeS3{}
	store := NewS3Store(client, "clinic", "https://cdn.example.com", nil)

	_, err := store.Upload(context.Background(), srv.URL+"/latest/meta-data/iam", AvatarFolder)
	assert.ErrorIs(t, err, ErrForbiddenHost)
	assert.Zero(t, hits.Load())
	assert.Empty(t, client.puts)
}

func Test_isPublic(t *testing.T) {
	testCases := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::6810:85e5", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.0.0.8", false},
		{"172.16.4.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"100.100.100.200", false},
		{"0.0.0.0", false},
		{"::", false},
		{"fd00::1", false},
		{"fe80::1", false},
		{"::ffff:127.0.0.1", false},
	}

	for _, tc := range testCases {
		t.Run(tc.addr, func(t *testing.T) {
			assert.Equal(t, tc.want, isPublic(netip.MustParseAddr(tc.addr)))
		})
	}
}

func TestS3Store_Upload_Rejects(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "clinic", "https://cdn.example.com", nil)
	store.maxBytes = 4

	_, err := store.Upload(context.Background(), "ftp://example.com/a.png", AvatarFolder)
	assert.ErrorIs(t, err, ErrUnsupportedData)

	_, err = store.Upload(context.Background(), "data:image/png,plain", AvatarFolder)
	assert.ErrorIs(t, err, ErrUnsupportedData)

	big := base64.StdEncoding.EncodeToString([]byte("too-big"))
	_, err = store.Upload(context.Background(), "data:image/png;base64,"+big, AvatarFolder)
	assert.ErrorIs(t, err, ErrTooLarge)

	assert.Empty(t, client.puts)
}

func TestS3Store_Upload_PutFails(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	store := NewS3Store(client, "clinic", "https://cdn.example.com", nil)

	payload := base64.StdEncoding.EncodeToString([]byte("x"))
	_, err := store.Upload(context.Background(), "data:image/png;base64,"+payload, AvatarFolder)
	assert.ErrorContains(t, err, "access denied")
}

func TestS3Store_Destroy(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "clinic", "https://cdn.example.com", nil)

	require.NoError(t, store.Destroy(context.Background(), "avatars/a.png"))
	require.NoError(t, store.Destroy(context.Background(), ""))
	assert.Equal(t, []string{"avatars/a.png"}, client.deletes)

	assert.NoError(t, store.Ping(context.Background()))
}

func TestNew(t *testing.T) {
	t.Run("no bucket gives nop store", func(t *testing.T) {
		store, err := New(context.Background(), &config.Config{})
		require.NoError(t, err)
		assert.IsType(t, NopStore{}, store)

		_, err = store.Upload(context.Background(), "data:image/png;base64,eA==", AvatarFolder)
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.NoError(t, store.Destroy(context.Background(), "x"))
	})

	t.Run("bucket gives s3 store", func(t *testing.T) {
		store, err := New(context.Background(), &config.Config{
			S3Bucket:    "clinic",
			S3Region:    "us-east-1",
			S3Endpoint:  "http://localhost:9000",
			S3AccessKey: "minio",
			S3SecretKey: "minio123",
		})
		require.NoError(t, err)
		s3Store, ok := store.(*S3Store)
		require.True(t, ok)
		assert.Equal(t, "http://localhost:9000/clinic", s3Store.publicURL)
	})
}

func Test_publicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.x", publicURL(&config.Config{S3PublicURL: "https://cdn.x"}))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", publicURL(&config.Config{S3Bucket: "b", S3Region: "eu-west-1"}))
}
