package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/worker"
)

// Local 把每个对象保存为根目录下以 ID 命名的文件，所有标签共用一个目录.
type Local struct {
	root string
	pool *worker.Pool
}

// NewLocal 创建本地后端，根目录不存在时自动创建.
func NewLocal(root string, pool *worker.Pool) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create local storage %s: %w", root, err)
	}

	return &Local{root: root, pool: pool}, nil
}

// Name 后端名称.
func (l *Local) Name() string {
	return "local"
}

// path 返回对象路径，拒绝包含路径分隔符的 ID.
func (l *Local) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", types.NewError(types.KindIOError, fmt.Errorf("invalid object id %q", id))
	}

	return filepath.Join(l.root, id), nil
}

// Put 先写临时文件再原子重命名，读者不会看到半写的对象.
func (l *Local) Put(ctx context.Context, _, id string, data []byte) error {
	p, err := l.path(id)
	if err != nil {
		return err
	}

	return l.pool.Run(ctx, func() error {
		tmp, err := os.CreateTemp(l.root, ".upload-*")
		if err != nil {
			return types.NewError(types.KindIOError, err)
		}

		tmpName := tmp.Name()
		defer os.Remove(tmpName)

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()

			return types.NewError(types.KindIOError, err)
		}

		if err := tmp.Sync(); err != nil {
			tmp.Close()

			return types.NewError(types.KindIOError, err)
		}

		if err := tmp.Close(); err != nil {
			return types.NewError(types.KindIOError, err)
		}

		if err := os.Rename(tmpName, p); err != nil {
			return types.NewError(types.KindIOError, err)
		}

		return nil
	})
}

// Get 读取对象.
func (l *Local) Get(ctx context.Context, _, id string) ([]byte, error) {
	p, err := l.path(id)
	if err != nil {
		return nil, err
	}

	return worker.Do(ctx, l.pool, func() ([]byte, error) {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, types.NewError(types.KindIOError, err)
		}

		return data, nil
	})
}

// Delete 删除对象，文件不存在时返回 IOError.
func (l *Local) Delete(ctx context.Context, _, id string) error {
	p, err := l.path(id)
	if err != nil {
		return err
	}

	return l.pool.Run(ctx, func() error {
		if err := os.Remove(p); err != nil {
			return types.NewError(types.KindIOError, err)
		}

		return nil
	})
}

// HealthCheck 检查根目录可访问.
func (l *Local) HealthCheck(ctx context.Context) error {
	return l.pool.Run(ctx, func() error {
		info, err := os.Stat(l.root)
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", l.root)
		}

		return nil
	})
}
