// Package codec defines the abstract per-item encode/decode contract
// that external sort, hash-join and the sharders build on. Specific
// wire formats beyond plain text and RFC-4180-ish CSV are an explicit
// non-goal (SPEC_FULL.md §1): callers of Sort/HashJoin/sharders supply
// their own Codec[T] for binary/protobuf payloads.
//
// The shape mirrors the standard library's encoding/gob: a Codec opens
// a stateful Encoder over a Writer and a stateful Decoder over a
// Reader, rather than exposing one-shot Encode/Decode functions, so
// successive items share the underlying buffering.
package codec

import "io"

// Encoder writes successive items to an underlying stream. Encodings
// must be self-delimiting and safe to concatenate: external sort and
// hash-join write one run/shard per Encoder and later read several
// concatenated runs back with a fresh Decoder.
type Encoder[T any] interface {
	Encode(item T) error
}

// Decoder reads successive items from an underlying stream, returning
// io.EOF once exhausted.
type Decoder[T any] interface {
	Decode() (T, error)
}

// Codec constructs encoders and decoders for T over concrete streams.
type Codec[T any] interface {
	NewEncoder(w io.Writer) Encoder[T]
	NewDecoder(r io.Reader) Decoder[T]
}

// Func builds a Codec from two plain functions, for callers that
// don't want to declare named encoder/decoder types - e.g. wrapping a
// caller-supplied binary format.
type Func[T any] struct {
	EncoderFn func(io.Writer) Encoder[T]
	DecoderFn func(io.Reader) Decoder[T]
}

func (f Func[T]) NewEncoder(w io.Writer) Encoder[T] { return f.EncoderFn(w) }
func (f Func[T]) NewDecoder(r io.Reader) Decoder[T] { return f.DecoderFn(r) }
