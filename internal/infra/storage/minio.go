package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domai "github.com/bryanwahyu/reviewgate/internal/domain/ai"
)

// Store keeps raw provider transcripts in object storage for auditing.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

type transcript struct {
	RunID      string    `json:"run_id"`
	AnalyzerID string    `json:"analyzer_id"`
	Attempt    int       `json:"attempt"`
	System     string    `json:"system"`
	User       string    `json:"user"`
	Response   string    `json:"response"`
	ProviderID string    `json:"provider_id"`
	Model      string    `json:"model"`
	StoredAt   time.Time `json:"stored_at"`
}

// Put uploads one provider exchange as JSON under
// <runID>/<analyzerID>-<attempt>.json and returns the object URL.
func (s *Store) Put(ctx context.Context, runID, analyzerID string, attempt int, p domai.Prompt, res domai.ChatResult) (string, error) {
	body, err := json.Marshal(transcript{
		RunID:      runID,
		AnalyzerID: analyzerID,
		Attempt:    attempt,
		System:     p.System,
		User:       p.User,
		Response:   res.Content,
		ProviderID: res.ProviderID,
		Model:      res.Model,
		StoredAt:   time.Now(),
	})
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s-%d.json", runID, analyzerID, attempt)
	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", err
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	url := fmt.Sprintf("http://%s/%s/%s", s.client.EndpointURL().Host, s.bucketName, key)
	return url, nil
}
