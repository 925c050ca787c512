package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

var ErrUnmanagedURL = errors.New("url does not belong to the object store")

// ObjectStore keeps uploaded files (event flyers, résumés) in an
// S3-compatible bucket served from PublicBaseURL.
type ObjectStore struct {
	bucket     string
	publicBase string
	client     *s3.Client
}

func NewObjectStore(ctx context.Context, cfg Config) (*ObjectStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}
	publicBase := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if publicBase == "" {
		return nil, fmt.Errorf("object store public base url is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(cfg.AccessKeyID),
			strings.TrimSpace(cfg.SecretAccessKey),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &ObjectStore{
		bucket:     strings.TrimSpace(cfg.Bucket),
		publicBase: publicBase,
		client:     client,
	}, nil
}

func (s *ObjectStore) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

// PutObject uploads body under key and returns its public URL.
func (s *ObjectStore) PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	key = strings.TrimLeft(key, "/")
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(ct),
		CacheControl: aws.String(cacheControlFor(key)),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

func (s *ObjectStore) DeleteKey(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimLeft(key, "/")),
	})
	return err
}

// DeleteURL removes the object a public URL points at.
func (s *ObjectStore) DeleteURL(ctx context.Context, raw string) error {
	key, ok := ResolveKey(s.publicBase, s.bucket, raw)
	if !ok {
		return ErrUnmanagedURL
	}
	return s.DeleteKey(ctx, key)
}

// ResolveKey maps a public or path-style S3 URL back to its object key.
func ResolveKey(publicBase, bucket, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	publicBase = strings.TrimRight(publicBase, "/")
	if publicBase != "" && strings.HasPrefix(raw, publicBase+"/") {
		key := strings.TrimLeft(raw[len(publicBase):], "/")
		return key, key != ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.TrimLeft(parsed.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == bucket {
		return strings.Join(parts[1:], "/"), true
	}
	return "", false
}

// FlyerKey is the object key of an event flyer. variant is "full" or "thumb";
// stamp keeps replaced flyers from being served from caches.
func FlyerKey(eventID, variant, stamp string) string {
	return path.Join("events", eventID, fmt.Sprintf("flyer-%s-%s.jpg", variant, stamp))
}

func ResumeKey(applicationID string) string {
	return path.Join("applications", applicationID, "resume.pdf")
}

func cacheControlFor(key string) string {
	if strings.HasPrefix(key, "applications/") {
		return "private, no-store"
	}
	return "public, max-age=31536000, immutable"
}
