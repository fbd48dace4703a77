package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// ImageSchema is the current binary image layout version. Increment when
// the def structs change incompatibly.
const ImageSchema uint16 = 1

// EncodeImage writes b as a msgpack image stamped with ImageSchema.
func EncodeImage(w io.Writer, b *Bundle) error {
	img := *b
	img.Schema = ImageSchema
	return msgpack.NewEncoder(w).Encode(&img)
}

// DecodeImage reads an image and rejects other schema versions.
func DecodeImage(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := msgpack.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b.Schema != ImageSchema {
		return nil, fmt.Errorf("%w: image schema %d, want %d", ErrSchemaMismatch, b.Schema, ImageSchema)
	}
	// Images always carry the current manifest schema.
	b.Schema = BundleSchema
	return &b, nil
}

// ReadImage decodes the image stored at path.
func ReadImage(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeImage(bytes.NewReader(data))
}

// WriteImage stores b at path, replacing any existing file atomically.
func WriteImage(path string, b *Bundle) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*.rmd")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()
	if err := EncodeImage(f, b); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
