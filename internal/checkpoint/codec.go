package checkpoint

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Encode writes h and p to w.
func Encode[T any](w io.Writer, h Header, p Payload[T]) error {
	h.Format = FormatVersion
	h.Step = p.Step
	h.Side = p.Side
	h.Cells = len(p.Cells)

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(h)
	if err != nil {
		enc.Close()
		return fmt.Errorf("header encode: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&p); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Marshal is Encode into a byte slice.
func Marshal[T any](h Header, p Payload[T]) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, h, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type reader struct {
	dec *zstd.Decoder
	br  *bufio.Reader
}

func open(r io.Reader) (*reader, Header, error) {
	var h Header
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, h, corrupt("zstd: %v", err)
	}
	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		dec.Close()
		return nil, h, corrupt("header: %v", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		dec.Close()
		return nil, h, corrupt("header: %v", err)
	}
	return &reader{dec: dec, br: br}, h, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(r io.Reader) (Header, error) {
	rd, h, err := open(r)
	if err != nil {
		return h, err
	}
	rd.dec.Close()
	return h, nil
}

// Decode reads a checkpoint, validating the header against want before the
// payload is decoded.
func Decode[T any](r io.Reader, want Expect) (Header, Payload[T], error) {
	var p Payload[T]
	rd, h, err := open(r)
	if err != nil {
		return h, p, err
	}
	defer rd.dec.Close()

	if err := h.Check(want); err != nil {
		return h, p, err
	}
	if err := gob.NewDecoder(rd.br).Decode(&p); err != nil {
		return h, p, corrupt("gob decode: %v", err)
	}
	switch {
	case len(p.Cells) != h.Cells:
		return h, p, corrupt("payload has %d cells, header says %d", len(p.Cells), h.Cells)
	case p.Step != h.Step || p.Side != h.Side:
		return h, p, corrupt("payload step/side %d/%d, header says %d/%d", p.Step, p.Side, h.Step, h.Side)
	case p.Step < 0 || p.Side < 1:
		return h, p, corrupt("step %d side %d", p.Step, p.Side)
	}
	return h, p, nil
}

// Unmarshal is Decode from a byte slice.
func Unmarshal[T any](data []byte, want Expect) (Header, Payload[T], error) {
	return Decode[T](bytes.NewReader(data), want)
}
