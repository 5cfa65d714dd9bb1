// Package storage uploads member photos to an S3 compatible bucket.
package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignExpiry = 15 * time.Minute

// UploadResult identifies a stored asset
type UploadResult struct {
	SecureURL string `json:"secureUrl"`
	PublicID  string `json:"publicId"`
}

// SignedUpload lets a browser upload directly to the bucket
type SignedUpload struct {
	PublicID  string `json:"publicId"`
	UploadURL string `json:"uploadUrl"`
	SecureURL string `json:"secureUrl"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

// ImageHost is the image hosting contract the services depend on
type ImageHost interface {
	Upload(ctx context.Context, data []byte, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
	SignUpload(ctx context.Context, params map[string]string) (*SignedUpload, error)
}

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	// PublicURL is the base browsers load images from; defaults to the endpoint
	PublicURL string
}

type S3ImageHost struct {
	cfg     S3Config
	client  *s3.Client
	presign *s3.PresignClient
}

func NewS3ImageHost(ctx context.Context, cfg S3Config) (*S3ImageHost, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3ImageHost{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// NewPublicID returns a fresh date-partitioned object key
func NewPublicID() string {
	d := time.Now().UTC()
	return fmt.Sprintf("members/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.NewString())
}

func (h *S3ImageHost) Upload(ctx context.Context, data []byte, contentType string) (*UploadResult, error) {
	key := NewPublicID()

	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return &UploadResult{SecureURL: h.URLFor(key), PublicID: key}, nil
}

func (h *S3ImageHost) Delete(ctx context.Context, publicID string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.cfg.Bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// SignUpload signs the caller's params and presigns a PUT for the asset.
// params may carry "public_id"; a new one is generated otherwise.
func (h *S3ImageHost) SignUpload(ctx context.Context, params map[string]string) (*SignedUpload, error) {
	key := params["public_id"]
	if key == "" {
		key = NewPublicID()
	}

	ts := time.Now().Unix()
	toSign := make(map[string]string, len(params)+2)
	for k, v := range params {
		toSign[k] = v
	}
	toSign["public_id"] = key
	toSign["timestamp"] = fmt.Sprint(ts)

	req, err := h.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(h.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &SignedUpload{
		PublicID:  key,
		UploadURL: req.URL,
		SecureURL: h.URLFor(key),
		Signature: SignParams(toSign, h.cfg.SecretKey),
		Timestamp: ts,
	}, nil
}

// URLFor is the public address of an uploaded asset
func (h *S3ImageHost) URLFor(publicID string) string {
	base := h.cfg.PublicURL
	if base == "" {
		base = strings.TrimRight(h.cfg.BaseEndpoint, "/") + "/" + h.cfg.Bucket
	}
	return strings.TrimRight(base, "/") + "/" + publicID
}

// SignParams returns hex(hmac-sha256(secret, k1=v1&k2=v2...)) over the
// params sorted by key, so the same params always sign the same way.
func SignParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}
