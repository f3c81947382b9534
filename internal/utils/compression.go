package utils

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// GzipExtension marks files that are written gzip compressed
const GzipExtension = ".gz"

// GzipCompress compresses data using gzip
func GzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GzipDecompress decompresses gzip data
func GzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// IsGzipPath reports whether path names a gzip file
func IsGzipPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), GzipExtension)
}

// EncodeForPath returns data gzipped when path ends in .gz, unchanged otherwise
func EncodeForPath(path string, data []byte) ([]byte, error) {
	if !IsGzipPath(path) {
		return data, nil
	}
	return GzipCompress(data)
}
