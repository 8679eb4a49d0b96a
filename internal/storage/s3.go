package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3API is the slice of the S3 client used by the archiver. Tests substitute
// a mock without an S3 connection.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Ensure *s3.Client implements S3API
var _ S3API = (*s3.Client)(nil)

// Arquivo is the stable reference returned for an uploaded document.
type Arquivo struct {
	Bucket  string
	Chave   string
	URL     string
	Tamanho int64
}

// Archiver uploads document binaries to object storage under deterministic
// keys. No dedup by content: legal documents are immutable artifacts and
// re-upload is rare, so every upload is new storage.
type Archiver struct {
	client S3API
	bucket string
	region string
}

// NewArchiver creates an archiver against AWS using the default credential chain.
func NewArchiver(ctx context.Context, bucket, region string) (*Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if region != "" {
		awsCfg.Region = region
	}

	return &Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		region: awsCfg.Region,
	}, nil
}

// NewArchiverWithClient creates an archiver with a custom S3 client,
// primarily for tests.
func NewArchiverWithClient(client S3API, bucket, region string) *Archiver {
	return &Archiver{client: client, bucket: bucket, region: region}
}

// Upload stores conteudo under folder with a collision-resistant key derived
// from the suggested name's extension, uploads it with public-read visibility
// and returns the stable reference.
func (a *Archiver) Upload(ctx context.Context, conteudo []byte, nomeSugerido, contentType, folder string) (*Arquivo, error) {
	chave := a.buildKey(nomeSugerido, folder)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(chave),
		Body:        bytes.NewReader(conteudo),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to S3: %w", err)
	}

	arq := &Arquivo{
		Bucket:  a.bucket,
		Chave:   chave,
		URL:     a.PublicURL(chave),
		Tamanho: int64(len(conteudo)),
	}

	slog.Debug("Uploaded document to object storage",
		"chave", chave,
		"tamanho", arq.Tamanho,
		"content_type", contentType,
	)

	return arq, nil
}

// Delete removes an object. S3 deletes are idempotent: removing a key that
// does not exist succeeds.
func (a *Archiver) Delete(ctx context.Context, chave string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(chave),
	})
	if err != nil {
		return fmt.Errorf("delete from S3: %w", err)
	}
	return nil
}

// PublicURL returns the deterministic public URL for a key.
func (a *Archiver) PublicURL(chave string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, chave)
}

// buildKey combines a timestamp and a random suffix with the original
// extension, under folder when given.
func (a *Archiver) buildKey(nomeSugerido, folder string) string {
	ext := strings.ToLower(path.Ext(nomeSugerido))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	if folder != "" {
		return strings.Trim(folder, "/") + "/" + name
	}
	return name
}
