// Package storage 对象存储（附件、承包商Logo）
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// 存储桶
const (
	BucketAttachments = "attachments"
	BucketLogos       = "logos"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore 对象存储接口，同一路径重复写入覆盖旧对象
type ObjectStore interface {
	Put(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, bucket, path string) error
	URL(bucket, path string) string
}

// MinIOConfig MinIO连接配置
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PublicURL string
}

// MinIOStore 基于MinIO的对象存储
type MinIOStore struct {
	client    *minio.Client
	publicURL string

	mu      sync.Mutex
	buckets map[string]bool
}

// NewMinIOStore 创建MinIO存储
func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + cfg.Endpoint
	}
	return &MinIOStore{client: client, publicURL: public, buckets: make(map[string]bool)}, nil
}

// EnsureBucket 存储桶不存在时创建
func (s *MinIOStore) EnsureBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets[bucket] {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}
	s.buckets[bucket] = true
	return nil
}

func (s *MinIOStore) Put(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error {
	if err := s.EnsureBucket(ctx, bucket); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *MinIOStore) Get(ctx context.Context, bucket, path string) (io.ReadCloser, error) {
	if _, err := s.client.StatObject(ctx, bucket, path, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	obj, err := s.client.GetObject(ctx, bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return obj, nil
}

func (s *MinIOStore) Remove(ctx context.Context, bucket, path string) error {
	if err := s.client.RemoveObject(ctx, bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *MinIOStore) URL(bucket, path string) string {
	return s.publicURL + "/" + bucket + "/" + path
}

// MemoryStore 内存对象存储，用于测试和未配置MinIO的本地环境
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *MemoryStore) Put(_ context.Context, bucket, path string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+path] = data
	m.types[bucket+"/"+path] = contentType
	return nil
}

func (m *MemoryStore) Get(_ context.Context, bucket, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket+"/"+path]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Remove(_ context.Context, bucket, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+path)
	delete(m.types, bucket+"/"+path)
	return nil
}

func (m *MemoryStore) URL(bucket, path string) string {
	return "/storage/" + bucket + "/" + path
}

// Has 对象是否存在
func (m *MemoryStore) Has(bucket, path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[bucket+"/"+path]
	return ok
}

// Len 对象数量
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
