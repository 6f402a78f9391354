// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package stream gives repeated, independent access to a report that may be
// stored in a file or an archive member.
package stream

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Mode selects between raw bytes and decoded text.
type Mode int

const (
	Binary Mode = iota
	Text
)

// Opener opens the underlying resource.
type Opener func() (io.ReadCloser, error)

// Stream is a report resource. The resource is read once, every Open returns
// a new cursor over it.
type Stream struct {
	name     string
	open     Opener
	encoding string

	once sync.Once
	data []byte
	err  error
}

// New creates a Stream.
func New(name string, open Opener) *Stream {
	return &Stream{name: name, open: open}
}

// FromFs creates a Stream for a file.
func FromFs(fs afero.Fs, name string) *Stream {
	return New(name, func() (io.ReadCloser, error) {
		return fs.Open(name)
	})
}

// FromBytes creates a Stream for data.
func FromBytes(name string, data []byte) *Stream {
	return New(name, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// SetEncoding sets the text encoding used when Bytes or Open are called
// without one.
func (s *Stream) SetEncoding(enc string) *Stream {
	s.encoding = enc
	return s
}

// Encoding returns the text encoding of the resource, empty for UTF-8.
func (s *Stream) Encoding() string {
	return s.encoding
}

// Name returns the name of the resource.
func (s *Stream) Name() string {
	return s.name
}

func (s *Stream) load() ([]byte, error) {
	s.once.Do(func() {
		r, err := s.open()
		if err != nil {
			s.err = errors.Wrapf(err, "could not open %s", s.name)
			return
		}
		defer r.Close() // nolint:errcheck
		s.data, s.err = io.ReadAll(r)
		if s.err != nil {
			s.err = errors.Wrapf(s.err, "could not read %s", s.name)
		}
	})
	return s.data, s.err
}

// Bytes returns the content in the given mode. An empty enc uses the
// encoding of the stream.
func (s *Stream) Bytes(mode Mode, enc string) ([]byte, error) {
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	if mode == Binary {
		return data, nil
	}

	if enc == "" {
		enc = s.encoding
	}
	decoder, err := textDecoder(enc)
	if err != nil {
		return nil, err
	}
	text, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", s.name)
	}
	return text, nil
}

// Open returns an independent cursor. In Text mode the content is decoded
// from enc to UTF-8. An empty enc means the encoding of the stream, which
// defaults to UTF-8. A byte order mark overrides the encoding.
func (s *Stream) Open(mode Mode, enc string) (io.ReadSeekCloser, error) {
	b, err := s.Bytes(mode, enc)
	if err != nil {
		return nil, err
	}
	return &cursor{Reader: bytes.NewReader(b)}, nil
}

func textDecoder(name string) (*encoding.Decoder, error) {
	var fallback encoding.Encoding = unicode.UTF8
	if name != "" && !strings.EqualFold(name, "utf-8") && !strings.EqualFold(name, "utf8") {
		e, err := htmlindex.Get(name)
		if err != nil {
			return nil, errors.Wrapf(err, "unknown encoding %s", name)
		}
		fallback = e
	}
	return &encoding.Decoder{Transformer: unicode.BOMOverride(fallback.NewDecoder())}, nil
}

type cursor struct {
	*bytes.Reader
}

func (c *cursor) Close() error {
	return nil
}
