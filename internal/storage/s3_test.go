package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	putInputs    []*s3.PutObjectInput
	deleteInputs []*s3.DeleteObjectInput
	putErr       error
	deleteErr    error
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.putInputs = append(m.putInputs, params)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	m.deleteInputs = append(m.deleteInputs, params)
	return &s3.DeleteObjectOutput{}, nil
}

func TestUploadSendsPublicReadObject(t *testing.T) {
	client := &mockS3Client{}
	a := NewArchiverWithClient(client, "acervo-docs", "us-east-1")

	conteudo := []byte("%PDF-1.7 fake body")
	arq, err := a.Upload(context.Background(), conteudo, "Petição Inicial.PDF", "application/pdf", "documentos")
	require.NoError(t, err)

	require.Len(t, client.putInputs, 1)
	in := client.putInputs[0]
	assert.Equal(t, "acervo-docs", *in.Bucket)
	assert.Equal(t, "application/pdf", *in.ContentType)
	assert.Equal(t, types.ObjectCannedACLPublicRead, in.ACL)

	body, err := io.ReadAll(in.Body)
	require.NoError(t, err)
	assert.Equal(t, conteudo, body)

	assert.Equal(t, "acervo-docs", arq.Bucket)
	assert.Equal(t, int64(len(conteudo)), arq.Tamanho)
	assert.Equal(t, *in.Key, arq.Chave)
}

func TestUploadKeyFormat(t *testing.T) {
	client := &mockS3Client{}
	a := NewArchiverWithClient(client, "acervo-docs", "us-east-1")

	arq, err := a.Upload(context.Background(), []byte("x"), "Sentença.PDF", "application/pdf", "documentos")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(arq.Chave, "documentos/"), "key must live under the configured folder")
	assert.True(t, strings.HasSuffix(arq.Chave, ".pdf"), "extension must be preserved lowercase, got %s", arq.Chave)
	assert.NotContains(t, arq.Chave, " ", "original file name must not leak into the key")
}

func TestUploadWithoutFolder(t *testing.T) {
	client := &mockS3Client{}
	a := NewArchiverWithClient(client, "acervo-docs", "us-east-1")

	arq, err := a.Upload(context.Background(), []byte("x"), "ata.pdf", "application/pdf", "")
	require.NoError(t, err)

	assert.NotContains(t, arq.Chave, "/")
}

func TestUploadKeysDoNotCollide(t *testing.T) {
	client := &mockS3Client{}
	a := NewArchiverWithClient(client, "acervo-docs", "us-east-1")

	first, err := a.Upload(context.Background(), []byte("a"), "doc.pdf", "application/pdf", "documentos")
	require.NoError(t, err)
	second, err := a.Upload(context.Background(), []byte("b"), "doc.pdf", "application/pdf", "documentos")
	require.NoError(t, err)

	assert.NotEqual(t, first.Chave, second.Chave, "identical names and contents must still get distinct keys")
}

func TestPublicURL(t *testing.T) {
	a := NewArchiverWithClient(&mockS3Client{}, "acervo-docs", "sa-east-1")

	url := a.PublicURL("documentos/123-abc.pdf")
	assert.Equal(t, "https://acervo-docs.s3.sa-east-1.amazonaws.com/documentos/123-abc.pdf", url)
}

func TestUploadErrorIsWrapped(t *testing.T) {
	boom := errors.New("AccessDenied")
	a := NewArchiverWithClient(&mockS3Client{putErr: boom}, "acervo-docs", "us-east-1")

	_, err := a.Upload(context.Background(), []byte("x"), "doc.pdf", "application/pdf", "")
	assert.ErrorIs(t, err, boom)
}

func TestDelete(t *testing.T) {
	client := &mockS3Client{}
	a := NewArchiverWithClient(client, "acervo-docs", "us-east-1")

	err := a.Delete(context.Background(), "documentos/123-abc.pdf")
	require.NoError(t, err)

	require.Len(t, client.deleteInputs, 1)
	assert.Equal(t, "documentos/123-abc.pdf", *client.deleteInputs[0].Key)
}
