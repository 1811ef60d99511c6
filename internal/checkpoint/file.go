package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile encodes a checkpoint to path. The file is written next to its
// destination and renamed into place, so an interrupted save never leaves a
// truncated checkpoint behind.
func WriteFile[T any](path string, h Header, p Payload[T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, h, p); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func ReadFile[T any](path string, want Expect) (Header, Payload[T], error) {
	f, err := os.Open(path)
	if err != nil {
		var p Payload[T]
		return Header{}, p, err
	}
	defer f.Close()
	h, p, err := Decode[T](f, want)
	if err != nil {
		return h, p, fmt.Errorf("%s: %w", path, err)
	}
	return h, p, nil
}

// Inspect returns the header of the checkpoint at path.
func Inspect(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	return ReadHeader(f)
}

// Name returns the conventional file name for a checkpoint of model at step.
func Name(model string, step int64) string {
	return fmt.Sprintf("%s_%d.ckpt", model, step)
}
