package blob

import (
	"bytes"
	"context"
	"errors"
	"io"

	minio "github.com/minio/minio-go/v7"
	"github.com/sony/gobreaker"

	"github.com/yeisme/mediavault/pkg/internal/types"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
)

// S3 每个标签对应一个存储桶，对象键即对象 ID.
type S3 struct {
	cli *s3c.Client
	cb  *gobreaker.CircuitBreaker
}

// NewS3 创建 S3 后端，cb 为空时不熔断.
func NewS3(cli *s3c.Client, cb *gobreaker.CircuitBreaker) *S3 {
	return &S3{cli: cli, cb: cb}
}

// Name 后端名称.
func (s *S3) Name() string {
	return "s3"
}

// call 经过熔断器执行，任何失败都映射为 S3Error.
func (s *S3) call(fn func() (any, error)) (any, error) {
	var (
		v   any
		err error
	)

	if s.cb != nil {
		v, err = s.cb.Execute(fn)
	} else {
		v, err = fn()
	}

	if err != nil {
		var e *types.Error
		if errors.As(err, &e) {
			return nil, err
		}

		return nil, types.NewError(types.KindS3Error, err)
	}

	return v, nil
}

// Put 上传对象.
func (s *S3) Put(ctx context.Context, tag, id string, data []byte) error {
	_, err := s.call(func() (any, error) {
		return s.cli.PutObject(ctx, s.cli.Bucket(tag), id, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "application/octet-stream"})
	})

	return err
}

// Get 下载对象.
func (s *S3) Get(ctx context.Context, tag, id string) ([]byte, error) {
	v, err := s.call(func() (any, error) {
		obj, err := s.cli.GetObject(ctx, s.cli.Bucket(tag), id, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}
		defer obj.Close()

		return io.ReadAll(obj)
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// Delete 删除对象；S3 对不存在的键也返回成功，因此先 Stat 确认存在.
func (s *S3) Delete(ctx context.Context, tag, id string) error {
	_, err := s.call(func() (any, error) {
		bkt := s.cli.Bucket(tag)
		if _, err := s.cli.StatObject(ctx, bkt, id, minio.StatObjectOptions{}); err != nil {
			return nil, err
		}

		return nil, s.cli.RemoveObject(ctx, bkt, id, minio.RemoveObjectOptions{})
	})

	return err
}

// HealthCheck 检查连接.
func (s *S3) HealthCheck(ctx context.Context) error {
	_, err := s.call(func() (any, error) {
		return nil, s.cli.HealthCheck(ctx)
	})

	return err
}
