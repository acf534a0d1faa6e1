package vms3

import (
	"context"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
)

const CompressedSuffix = ".zst"

var ErrChecksumMismatch = errors.New("checksum mismatch")

// StageImage downloads objectKey and writes it to dest, replacing any existing
// file atomically. Keys ending in .zst are decompressed. When the object
// carries a digest it must match the stored bytes.
func (s *S3DB) StageImage(ctx context.Context, objectKey string, dest string) (int64, error) {
	data, metadata, err := s.GetObject(ctx, objectKey)
	if err != nil {
		return 0, err
	}
	if stored := metadata[ChecksumHeader]; stored != "" {
		want, err := digest.Parse(stored)
		if err != nil {
			return 0, fmt.Errorf("invalid checksum on %s: %w", objectKey, err)
		}
		if got := want.Algorithm().FromBytes(data); got != want {
			return 0, fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksumMismatch, objectKey, want, got)
		}
	}
	if strings.HasSuffix(objectKey, CompressedSuffix) {
		data, err = DecompressBufferZstd(data)
		if err != nil {
			return 0, fmt.Errorf("failed to decompress %s: %w", objectKey, err)
		}
	}
	if err := WriteFileAtomic(dest, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write image %s: %w", dest, err)
	}
	slog.Info("Staged test image", "objectKey", objectKey, "dest", dest, "sizeBytes", len(data))
	return int64(len(data)), nil
}

// PublishImage uploads the image at path under objectKey, zstd compressed
// when the key ends in .zst.
func (s *S3DB) PublishImage(ctx context.Context, path string, objectKey string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", path, err)
	}
	if strings.HasSuffix(objectKey, CompressedSuffix) {
		data, err = CompressBufferZstd(data)
		if err != nil {
			return err
		}
	}
	return s.UploadFile(ctx, objectKey, data, digest.FromBytes(data).String())
}

// WriteFileAtomic writes through a temporary file in the same directory and
// renames it into place.
func WriteFileAtomic(filePath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filePath)
	tmp, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filePath)
}
