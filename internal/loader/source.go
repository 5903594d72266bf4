package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Opener 打开一个数据源。数据源不存在时返回的错误须包装 ErrSourceNotFound 或 fs.ErrNotExist。
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// FileOpener 从本地文件系统读取数据源。
type FileOpener struct{}

// Open 打开本地文件。
func (FileOpener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
		}
		return nil, err
	}
	return f, nil
}
