package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/clipshare/account-backend/pkg/user-management/types"
)

type S3Config struct {
	Region        string `json:"region" yaml:"region"`
	BaseEndpoint  string `json:"base_endpoint" yaml:"base_endpoint"`
	Bucket        string `json:"bucket" yaml:"bucket"`
	AccessKey     string `json:"access_key" yaml:"access_key"`
	SecretKey     string `json:"secret_key" yaml:"secret_key"`
	PublicBaseURL string `json:"public_base_url" yaml:"public_base_url"`
}

// AvatarStore persists avatar images to an S3 compatible bucket and
// hands back durable public references.
type AvatarStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewAvatarStore(ctx context.Context, conf S3Config) (*AvatarStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(conf.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			conf.AccessKey,
			conf.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(conf.BaseEndpoint)
		}
	})

	return &AvatarStore{
		client:        client,
		bucket:        conf.Bucket,
		publicBaseURL: strings.TrimSuffix(conf.PublicBaseURL, "/"),
	}, nil
}

func newStorageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("avatars/%d/%02d/%02d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// Store uploads the staged file and returns its durable reference. The
// local file is removed after the attempt, whether it succeeded or not.
func (s *AvatarStore) Store(ctx context.Context, localPath string) (types.AvatarRef, error) {
	defer os.Remove(localPath)

	file, err := os.Open(localPath)
	if err != nil {
		return types.AvatarRef{}, err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := newStorageKey(ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        file,
		ContentType: &contentType,
	})
	if err != nil {
		return types.AvatarRef{}, err
	}

	return types.AvatarRef{
		URL: fmt.Sprintf("%s/%s", s.publicBaseURL, key),
		Key: key,
	}, nil
}

// Remove deletes a stored avatar, used when the owning account is deleted.
func (s *AvatarStore) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	return err
}
