package csvsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/config"
)

// File is an opened bank statement ready to upload
type File struct {
	Name string
	Size int64 // -1 when unknown
	Body io.ReadCloser
}

// Source opens bank statements by reference
type Source interface {
	Open(ctx context.Context, ref string) (*File, error)
}

// LocalSource reads statements from the local filesystem
type LocalSource struct{}

// Open implements Source
func (LocalSource) Open(_ context.Context, ref string) (*File, error) {
	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat statement: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("statement %s is a directory", ref)
	}
	return &File{Name: filepath.Base(ref), Size: info.Size(), Body: f}, nil
}

// IsS3 reports whether ref points at an S3 object (s3://bucket/key)
func IsS3(ref string) bool {
	return strings.HasPrefix(ref, "s3://")
}

// Resolve picks the source able to open ref
func Resolve(ctx context.Context, ref string, s3cfg config.S3Config) (Source, error) {
	if IsS3(ref) {
		return NewS3Source(ctx, s3cfg)
	}
	return LocalSource{}, nil
}
