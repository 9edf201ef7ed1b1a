package codec

import (
	"encoding/csv"
	"io"
)

// NullSentinel is the reserved placeholder CSV uses for an absent
// cell, on both read and write (§6 "CSV files").
const NullSentinel = "null"

// CSV is a Codec[[]string] for RFC-4180-ish rows. An empty cell is
// written as NullSentinel and read back as an empty string; a cell
// whose actual value is the literal string "null" is indistinguishable
// from an absent one, a known limitation of the reserved-sentinel
// design (§6).
var CSV Codec[[]string] = csvCodec{}

type csvCodec struct{}

func (csvCodec) NewEncoder(w io.Writer) Encoder[[]string] {
	return &csvEncoder{w: csv.NewWriter(w)}
}

func (csvCodec) NewDecoder(r io.Reader) Decoder[[]string] {
	return &csvDecoder{r: csv.NewReader(r)}
}

type csvEncoder struct {
	w *csv.Writer
}

func (e *csvEncoder) Encode(row []string) error {
	out := make([]string, len(row))
	for i, cell := range row {
		if cell == "" {
			out[i] = NullSentinel
		} else {
			out[i] = cell
		}
	}
	if err := e.w.Write(out); err != nil {
		return err
	}
	e.w.Flush()
	return e.w.Error()
}

type csvDecoder struct {
	r *csv.Reader
}

func (d *csvDecoder) Decode() ([]string, error) {
	row, err := d.r.Read()
	if err != nil {
		return nil, err // io.EOF propagates as-is
	}
	for i, cell := range row {
		if cell == NullSentinel {
			row[i] = ""
		}
	}
	return row, nil
}
