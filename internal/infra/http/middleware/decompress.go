package middleware

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// DecompressConfig configures the decompression middleware.
type DecompressConfig struct {
	// MaxDecompressedSize is the maximum size of decompressed body.
	MaxDecompressedSize int64

	// MaxCompressedSize is the maximum size of compressed input.
	MaxCompressedSize int64

	// MaxCompressionRatio rejects bodies whose decompressed/compressed
	// ratio exceeds it, as potential zipbombs.
	MaxCompressionRatio float64
}

// DefaultDecompressConfig returns the default configuration.
func DefaultDecompressConfig() *DecompressConfig {
	return &DecompressConfig{
		MaxDecompressedSize: 10 * 1024 * 1024,
		MaxCompressedSize:   2 * 1024 * 1024,
		MaxCompressionRatio: 100,
	}
}

// Decompress decompresses request bodies based on the Content-Encoding
// header. Supports gzip and zstd. Place it before the body limit
// middleware so the decompressed size is what gets limited.
func Decompress(config *DecompressConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultDecompressConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead ||
				r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			encoding := strings.ToLower(r.Header.Get("Content-Encoding"))
			if encoding == "" || encoding == "identity" {
				next.ServeHTTP(w, r)
				return
			}
			if encoding != "gzip" && encoding != "zstd" {
				http.Error(w, fmt.Sprintf("unsupported Content-Encoding: %s", encoding),
					http.StatusUnsupportedMediaType)
				return
			}

			decompressed, err := decompressBody(r.Body, encoding, config)
			if err != nil {
				http.Error(w, "invalid compressed request body", http.StatusBadRequest)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(decompressed))
			r.ContentLength = int64(len(decompressed))
			r.Header.Del("Content-Encoding")

			next.ServeHTTP(w, r)
		})
	}
}

func decompressBody(body io.ReadCloser, encoding string, config *DecompressConfig) ([]byte, error) {
	defer body.Close()

	compressed, err := io.ReadAll(io.LimitReader(body, config.MaxCompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed body: %w", err)
	}
	if int64(len(compressed)) > config.MaxCompressedSize {
		return nil, fmt.Errorf("compressed size exceeds limit %d", config.MaxCompressedSize)
	}
	if len(compressed) == 0 {
		return []byte{}, nil
	}

	var reader io.Reader
	switch encoding {
	case "gzip":
		gr, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, fmt.Errorf("gzip reader error: %w", err)
		}
		defer gr.Close()
		reader = gr
	case "zstd":
		zr, err := zstd.NewReader(bytes.NewReader(compressed),
			zstd.WithDecoderMaxMemory(uint64(config.MaxDecompressedSize)),
			zstd.WithDecoderConcurrency(1),
		)
		if err != nil {
			return nil, fmt.Errorf("zstd reader error: %w", err)
		}
		defer zr.Close()
		reader = zr
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}

	decompressed, err := io.ReadAll(io.LimitReader(reader, config.MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompression error: %w", err)
	}
	if int64(len(decompressed)) > config.MaxDecompressedSize {
		return nil, fmt.Errorf("decompressed size exceeds limit %d", config.MaxDecompressedSize)
	}

	ratio := float64(len(decompressed)) / float64(len(compressed))
	if ratio > config.MaxCompressionRatio {
		return nil, fmt.Errorf("compression ratio %.1f exceeds limit %.1f", ratio, config.MaxCompressionRatio)
	}

	return decompressed, nil
}
