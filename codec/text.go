package codec

import (
	"bufio"
	"io"
)

// Text is a Codec[string] for newline-terminated UTF-8 text (§6 "Text
// files"). Encoding is self-delimiting (one line per item) and safe
// to concatenate, which is all external sort's run files need.
//
// A line containing '\n' cannot round-trip, matching the limitation
// of every line-oriented text format; callers with embedded newlines
// should use CSV or a caller-supplied binary codec instead.
var Text Codec[string] = textCodec{}

type textCodec struct{}

func (textCodec) NewEncoder(w io.Writer) Encoder[string] { return &textEncoder{w: w} }
func (textCodec) NewDecoder(r io.Reader) Decoder[string] {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &textDecoder{sc: sc}
}

type textEncoder struct {
	w io.Writer
}

func (e *textEncoder) Encode(item string) error {
	_, err := io.WriteString(e.w, item+"\n")
	return err
}

type textDecoder struct {
	sc *bufio.Scanner
}

func (d *textDecoder) Decode() (string, error) {
	if !d.sc.Scan() {
		if err := d.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return d.sc.Text(), nil
}
