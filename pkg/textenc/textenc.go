// Package textenc resolves IANA charset names and converts file bytes to
// and from the UTF-8 working text the staging layer operates on.
package textenc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Codec names the character sets applied when file bytes are read and
// written. Empty names (and UTF-8) mean identity.
//
// Input is the charset of the existing file: its bytes are decoded to
// UTF-8 working text when staging reads it. Transfer, when set, is the
// charset the working text must stay representable in; it also becomes
// the fallback output charset. Output is the charset written at commit
// and falls back to Transfer, then Input.
type Codec struct {
	Input    string
	Output   string
	Transfer string
}

// ConversionError reports a failed charset lookup or conversion.
type ConversionError struct {
	Charset string
	Op      string // "lookup", "decode", "encode"
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s", e.Op, e.Charset)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Charset, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Resolve looks up an IANA charset name. Empty and UTF-8 names resolve to
// nil, meaning no conversion is needed.
func Resolve(name string) (encoding.Encoding, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "utf-8") || strings.EqualFold(trimmed, "utf8") {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(trimmed)
	if err != nil {
		return nil, &ConversionError{Charset: trimmed, Op: "lookup", Err: err}
	}
	if enc == nil {
		// registered name without a Go implementation
		return nil, &ConversionError{Charset: trimmed, Op: "lookup"}
	}
	return enc, nil
}

// DecodeInput converts raw file bytes from the input charset to UTF-8.
func (c Codec) DecodeInput(raw []byte) (string, error) {
	enc, err := Resolve(c.Input)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", &ConversionError{Charset: c.Input, Op: "decode", Err: err}
	}
	return string(out), nil
}

// Normalize round-trips working text through the transfer charset,
// failing when the text is not representable in it. Without a transfer
// charset the text passes through untouched.
func (c Codec) Normalize(text string) (string, error) {
	enc, err := Resolve(c.Transfer)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return text, nil
	}
	raw, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return "", &ConversionError{Charset: c.Transfer, Op: "encode", Err: err}
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", &ConversionError{Charset: c.Transfer, Op: "decode", Err: err}
	}
	return string(out), nil
}

// EncodeOutput converts working text to the bytes written at commit,
// using the effective output charset.
func (c Codec) EncodeOutput(text string) ([]byte, error) {
	name := c.EffectiveOutput()
	enc, err := Resolve(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(text), nil
	}
	raw, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, &ConversionError{Charset: name, Op: "encode", Err: err}
	}
	return raw, nil
}

// DecodeReader wraps r so reads yield UTF-8 text decoded from the input
// charset.
func (c Codec) DecodeReader(r io.Reader) (io.Reader, error) {
	enc, err := Resolve(c.Input)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return r, nil
	}
	return enc.NewDecoder().Reader(r), nil
}

// EncodeWriter wraps w so UTF-8 text written to it lands as bytes in the
// effective output charset. The returned writer must be closed to flush.
func (c Codec) EncodeWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := Resolve(c.EffectiveOutput())
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nopWriteCloser{w}, nil
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}

// EffectiveOutput is the charset actually written at commit: Output,
// else Transfer, else Input.
func (c Codec) EffectiveOutput() string {
	if c.Output != "" {
		return c.Output
	}
	if c.Transfer != "" {
		return c.Transfer
	}
	return c.Input
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
