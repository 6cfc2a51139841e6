package services

import (
	"context"
	"fmt"
	"time"

	appconfig "story-feed-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadURLExpiry = 5 * time.Minute

// MediaService generates pre-signed S3 upload URLs for story media
type MediaService struct {
	s3Client *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewMediaService creates a new media service
func NewMediaService(cfg appconfig.AWSConfig) (*MediaService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		s3Client: s3Client,
		bucket:   cfg.S3Bucket,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
	}, nil
}

// UploadTicket is a pre-signed upload slot for one media file
type UploadTicket struct {
	UploadURL string `json:"upload_url"`
	MediaURL  string `json:"media_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignUpload generates a pre-signed PUT URL for a story media object.
// The object key is {user_id}/{uuid} so media groups by owner in the bucket.
func (s *MediaService) PresignUpload(ctx context.Context, userID, contentType string) (*UploadTicket, error) {
	key := fmt.Sprintf("%s/%s", userID, uuid.New().String())

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	mediaURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	if s.endpoint != "" {
		mediaURL = fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}

	return &UploadTicket{
		UploadURL: request.URL,
		MediaURL:  mediaURL,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	}, nil
}
