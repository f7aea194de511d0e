// Package netfile reads and writes model programs: small dataflow programs over
// float64 vectors, serialized as JSON, CBOR or MessagePack.
//
// Slots 0..len(Inputs)-1 hold the model inputs; every op appends one slot
// computed from earlier slots. Outputs lists the slots returned by the model.
package netfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ugorji/go/codec"
)

const (
	FormatName       = "signet/program"
	SupportedVersion = 1
)

// File is the serialized form of a program.
type File struct {
	Format  string `codec:"format"`
	Version int    `codec:"version"`
	Name    string `codec:"name,omitempty"`

	// expected length of each input, 0 accepts any length
	Inputs  []int  `codec:"inputs"`
	Ops     []Op   `codec:"ops"`
	Outputs []int  `codec:"outputs"`
	Result  string `codec:"result"`
}

type Op struct {
	Op   string `codec:"op"`
	Args []int  `codec:"args"`

	Weights [][]float64 `codec:"weights,omitempty"`
	Bias    []float64   `codec:"bias,omitempty"`
	Factor  float64     `codec:"factor,omitempty"`
	Fn      string      `codec:"fn,omitempty"`
	From    int         `codec:"from,omitempty"`
	To      int         `codec:"to,omitempty"`
}

// Encoding selects the wire encoding of a File.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingCBOR    Encoding = "cbor"
	EncodingMsgpack Encoding = "msgpack"
)

// EncodingForPath picks the encoding from the file extension.
func EncodingForPath(path string) (Encoding, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return EncodingJSON, nil
	case ".cbor":
		return EncodingCBOR, nil
	case ".msgpack", ".mpk":
		return EncodingMsgpack, nil
	default:
		return "", fmt.Errorf("unsupported model file extension %q", ext)
	}
}

func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(s)); e {
	case EncodingJSON, EncodingCBOR, EncodingMsgpack:
		return e, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", s)
	}
}

func handle(enc Encoding) (codec.Handle, error) {
	switch enc {
	case EncodingJSON:
		return &codec.JsonHandle{}, nil
	case EncodingCBOR:
		return &codec.CborHandle{}, nil
	case EncodingMsgpack:
		return &codec.MsgpackHandle{}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

// Encode serializes f.
func Encode(enc Encoding, f File) ([]byte, error) {
	h, err := handle(enc)
	if err != nil {
		return nil, err
	}

	var out []byte
	if err := codec.NewEncoderBytes(&out, h).Encode(f); err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc, err)
	}
	return out, nil
}

// DecodeFile deserializes a File and checks its header.
func DecodeFile(enc Encoding, data []byte) (File, error) {
	h, err := handle(enc)
	if err != nil {
		return File{}, err
	}

	var f File
	if err := codec.NewDecoderBytes(data, h).Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode %s: %w", enc, err)
	}

	if f.Format != FormatName {
		return File{}, fmt.Errorf("not a model program: format %q", f.Format)
	}
	if f.Version != SupportedVersion {
		return File{}, fmt.Errorf("unsupported program version %d", f.Version)
	}
	return f, nil
}

// Decode deserializes and compiles a program.
func Decode(enc Encoding, data []byte) (*Program, error) {
	f, err := DecodeFile(enc, data)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}
