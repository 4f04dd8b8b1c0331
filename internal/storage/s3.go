package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/youi/backend/internal/auth"
	"github.com/youi/backend/internal/config"
	"github.com/youi/backend/internal/models"
)

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3CredentialStore keeps the credential as one private JSON object in an
// S3-compatible bucket.
type S3CredentialStore struct {
	getter   objectGetter
	uploader objectUploader
	bucket   string
	key      string
}

// NewS3CredentialStore configures a client targeting the provided object store.
func NewS3CredentialStore(ctx context.Context, cfg config.ObjectStoreConfig) (*S3CredentialStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 store: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.LeavePartsOnError = false
	})

	return newS3CredentialStore(client, uploader, cfg.Bucket, cfg.Key), nil
}

func newS3CredentialStore(getter objectGetter, uploader objectUploader, bucket, key string) *S3CredentialStore {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		key = "youi/token.json"
	}
	return &S3CredentialStore{getter: getter, uploader: uploader, bucket: bucket, key: key}
}

// Load fetches and decodes the credential object. A missing object yields
// auth.ErrNoCredential.
func (s *S3CredentialStore) Load(ctx context.Context) (models.Credential, error) {
	out, err := s.getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return models.Credential{}, auth.ErrNoCredential
		}
		return models.Credential{}, fmt.Errorf("s3 store get %s: %w", s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return models.Credential{}, fmt.Errorf("s3 store read %s: %w", s.key, err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return models.Credential{}, fmt.Errorf("s3 store decode %s: %w", s.key, err)
	}
	return cred, nil
}

// Save uploads the credential, replacing the previous object.
func (s *S3CredentialStore) Save(ctx context.Context, credential models.Credential) error {
	data, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("s3 store upload %s: %w", s.key, err)
	}
	return nil
}

var _ auth.CredentialStore = (*S3CredentialStore)(nil)
