package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/postbridge/postbridge/internal/server/config"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "media",
		SecretKey:      "k",
	}
}

// stubPresignClient replaces the AWS construction seams with no-op stubs and
// restores all of them when the test finishes.
func stubPresignClient(t *testing.T) {
	t.Helper()

	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func Test_getPresignClient_SuccessAndError(t *testing.T) {
	svc := NewService(testConfig())

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		if len(optFns) == 0 {
			t.Fatalf("expected config options")
		}
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	var capturedBaseEndpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil {
			t.Fatalf("BaseEndpoint not set")
		}
		capturedBaseEndpoint = *opts.BaseEndpoint
		return &s3.Client{}
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		if c == nil {
			t.Fatalf("nil client passed to presign")
		}
		return &s3.PresignClient{}
	}

	pc, err := svc.getPresignClient()
	if err != nil {
		t.Fatalf("getPresignClient err: %v", err)
	}
	if pc == nil {
		t.Fatalf("nil presign client")
	}
	if capturedBaseEndpoint != "http://127.0.0.1:9000" {
		t.Fatalf("BaseEndpoint mismatch: %q", capturedBaseEndpoint)
	}

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	pc, err = svc.getPresignClient()
	if err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v (pc=%v)", err, pc)
	}
}

func TestNewUploadURL_ReturnsKeyAndPutURL(t *testing.T) {
	svc := NewService(testConfig())
	stubPresignClient(t)

	var captured s3.PutObjectInput
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		captured = *in
		return &v4.PresignedHTTPRequest{URL: "https://minio.local/put"}, nil
	}

	key, url, err := svc.NewUploadURL(context.Background())
	if err != nil {
		t.Fatalf("NewUploadURL err: %v", err)
	}
	if url != "https://minio.local/put" {
		t.Fatalf("url mismatch: %q", url)
	}
	if !strings.HasPrefix(key, "media/") {
		t.Fatalf("key missing date prefix: %q", key)
	}
	if *captured.Bucket != "media" {
		t.Fatalf("bucket mismatch: %q", *captured.Bucket)
	}
	if *captured.Key != key {
		t.Fatalf("presigned key %q differs from returned key %q", *captured.Key, key)
	}
}

func TestNewUploadURL_ErrorFromPresign(t *testing.T) {
	svc := NewService(testConfig())
	stubPresignClient(t)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}

	_, _, err := svc.NewUploadURL(context.Background())
	if err == nil || err.Error() != "presign-put-fail" {
		t.Fatalf("want presign-put-fail, got %v", err)
	}
}

func TestResolveURL_ReturnsPresignedGet(t *testing.T) {
	svc := NewService(testConfig())
	stubPresignClient(t)

	var captured s3.GetObjectInput
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		captured = *in
		return &v4.PresignedHTTPRequest{URL: "https://minio.local/get"}, nil
	}

	url, err := svc.ResolveURL(context.Background(), "media/2025/1/2/abc")
	if err != nil {
		t.Fatalf("ResolveURL err: %v", err)
	}
	if url != "https://minio.local/get" {
		t.Fatalf("url mismatch: %q", url)
	}
	if *captured.Bucket != "media" {
		t.Fatalf("bucket mismatch: %q", *captured.Bucket)
	}
	if *captured.Key != "media/2025/1/2/abc" {
		t.Fatalf("key mismatch: %q", *captured.Key)
	}
}

func TestResolveURL_ErrorFromPresign(t *testing.T) {
	svc := NewService(testConfig())
	stubPresignClient(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-get-fail")
	}

	_, err := svc.ResolveURL(context.Background(), "media/key")
	if err == nil || err.Error() != "presign-get-fail" {
		t.Fatalf("want presign-get-fail, got %v", err)
	}
}

func TestRandomStorageKey_Shape(t *testing.T) {
	a := RandomStorageKey()
	b := RandomStorageKey()

	if a == b {
		t.Fatalf("keys must be unique, got %q twice", a)
	}
	if parts := strings.Split(a, "/"); len(parts) != 5 || parts[0] != "media" {
		t.Fatalf("unexpected key shape: %q", a)
	}
}
