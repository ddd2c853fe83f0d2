package objectstore

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/dmitrijs2005/passvault/internal/server/config"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3AccessKey:    "minioadmin",
		S3SecretKey:    "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "passvault",
	}
}

func TestNewS3Store_NotConfigured(t *testing.T) {
	_, err := NewS3Store(context.Background(), &sc.Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewS3Store_LoadConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewS3Store(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load-fail")
}

func TestNewS3Store_AppliesOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	_, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestPresignGet_SignedURL(t *testing.T) {
	store, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)

	raw, err := store.PresignGet(context.Background(), "backups/u1/x.json")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", u.Host)
	assert.Equal(t, "/passvault/backups/u1/x.json", u.Path)

	q := u.Query()
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Equal(t, "900", q.Get("X-Amz-Expires"))
}

func TestPut_UsesBucketAndKey(t *testing.T) {
	orig := putObject
	t.Cleanup(func() { putObject = orig })

	var gotBucket, gotKey, gotType, gotBody string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		gotBucket, gotKey, gotType = *in.Bucket, *in.Key, *in.ContentType
		b, _ := io.ReadAll(in.Body)
		gotBody = string(b)
		return &s3.PutObjectOutput{}, nil
	}

	store, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "k", []byte(`{"a":1}`), "application/json"))

	assert.Equal(t, "passvault", gotBucket)
	assert.Equal(t, "k", gotKey)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"a":1}`, gotBody)
}

func TestPut_Error(t *testing.T) {
	orig := putObject
	t.Cleanup(func() { putObject = orig })

	putObject = func(*s3.Client, context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("denied")
	}

	store, err := NewS3Store(context.Background(), testConfig())
	require.NoError(t, err)
	err = store.Put(context.Background(), "k", nil, "application/json")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "denied"))
}
