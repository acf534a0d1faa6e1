package vms3

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

func CompressBufferZstd(data []byte) ([]byte, error) {
	var compressedBuf bytes.Buffer
	writer, err := zstd.NewWriter(&compressedBuf)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data to zstd writer: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return compressedBuf.Bytes(), nil
}

// DecompressBufferZstd decodes a whole zstd stream. Test images are small
// enough to hold in memory.
func DecompressBufferZstd(compressedData []byte) ([]byte, error) {
	reader, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer reader.Close()
	data, err := reader.DecodeAll(compressedData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}
	return data, nil
}
