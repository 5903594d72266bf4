// Package storage提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"chat-analysis-go/internal/config"
	"chat-analysis-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// InitMinIO 初始化 MinIO 客户端。Endpoint 为空时不启用对象存储数据源。
func InitMinIO(cfg config.MinIOConfig) error {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	MinioClient = client
	log.Info("MinIO 客户端初始化成功")
	return nil
}

// objectGetter 是 ObjectOpener 用到的 MinIO 客户端子集。
type objectGetter interface {
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// ObjectOpener 从 MinIO 读取 minio://bucket/object 形式的数据源。
type ObjectOpener struct {
	client objectGetter
}

// NewObjectOpener 创建基于给定客户端的数据源读取器。
func NewObjectOpener(client *minio.Client) *ObjectOpener {
	return &ObjectOpener{client: client}
}

// ObjectScheme 是对象存储数据源的地址前缀。
const ObjectScheme = "minio://"

// ErrObjectNotFound 表示对象或存储桶不存在，可用 errors.Is(err, fs.ErrNotExist) 判断。
var ErrObjectNotFound = fmt.Errorf("object not found: %w", fs.ErrNotExist)

// IsObjectLocation 判断数据源地址是否指向对象存储。
func IsObjectLocation(location string) bool {
	return strings.HasPrefix(location, ObjectScheme)
}

// ParseObjectLocation 将 minio://bucket/object 拆分为存储桶与对象名。
func ParseObjectLocation(location string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(location, ObjectScheme)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid object location %q, want %sbucket/object", location, ObjectScheme)
	}
	return parts[0], parts[1], nil
}

// Open 打开对象。对象或存储桶不存在时返回的错误包装 ErrObjectNotFound。
func (o *ObjectOpener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, object, err := ParseObjectLocation(location)
	if err != nil {
		return nil, err
	}
	obj, err := o.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(bucket, object, err)
	}
	// GetObject 是惰性的，Stat 才会真正访问服务端
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapObjectError(bucket, object, err)
	}
	return obj, nil
}

func mapObjectError(bucket, object string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: object %s/%s: %v", ErrObjectNotFound, bucket, object, err)
	}
	return fmt.Errorf("get object %s/%s: %w", bucket, object, err)
}
