package persistence

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

type saveOptions struct {
	compress bool
	level    int
}

// SaveOption configures SaveGob.
type SaveOption func(*saveOptions)

// WithCompression zstd-compresses the gob stream at the given zstd level
// (1 fastest to 22 smallest; values outside that range are clamped by zstd).
func WithCompression(level int) SaveOption {
	return func(o *saveOptions) {
		o.compress = true
		o.level = level
	}
}

// SaveGob encodes the given object using gob and saves it to the specified filePath.
// It creates necessary directories if they don't exist. The file is written
// under a temporary name and renamed, so readers never see a partial snapshot.
func SaveGob(filePath string, object interface{}, opts ...SaveOption) (err error) {
	var options saveOptions
	for _, opt := range opts {
		opt(&options)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	var w io.Writer = tmp
	var encoder *zstd.Encoder
	if options.compress {
		encoder, err = zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(options.level)))
		if err != nil {
			return fmt.Errorf("failed to create zstd writer for %s: %w", filePath, err)
		}
		w = encoder
	}

	if err = gob.NewEncoder(w).Encode(object); err != nil {
		return fmt.Errorf("failed to gob encode to file %s: %w", filePath, err)
	}
	if encoder != nil {
		if err = encoder.Close(); err != nil {
			return fmt.Errorf("failed to flush zstd stream for %s: %w", filePath, err)
		}
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filePath, err)
	}
	if err = os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to move snapshot into place at %s: %w", filePath, err)
	}
	return nil
}

// LoadGob decodes a gob-encoded file from filePath into the provided object pointer.
// The object must be a pointer to the type that was originally encoded.
// Plain and zstd-compressed files are both accepted.
// If the file does not exist, it returns os.ErrNotExist, allowing callers to handle
// fresh starts gracefully.
func LoadGob(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.ErrNotExist // Return specific error for non-existent file
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", filePath, "error", closeErr)
		}
	}()

	br := bufio.NewReader(file)
	var r io.Reader = br
	if header, _ := br.Peek(len(zstdMagic)); bytes.Equal(header, zstdMagic) {
		decoder, err := zstd.NewReader(br)
		if err != nil {
			return fmt.Errorf("failed to create zstd reader for %s: %w", filePath, err)
		}
		defer decoder.Close()
		r = decoder
	}

	if err := gob.NewDecoder(r).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
	}
	return nil
}
