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

// Package spooled provides a buffer that is kept in memory up to a size
// limit and spooled to a temporary file beyond.
package spooled

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// TemporaryFile is written completely before it is read.
type TemporaryFile struct {
	fs         afero.Fs
	size       int64
	maxSize    int64
	buffer     *bytes.Buffer
	tempFile   afero.File
	rolledOver bool
	reading    bool
}

// New creates a TemporaryFile that rolls over to fs after maxSize bytes.
// The returned function removes the temporary file.
func New(fs afero.Fs, maxSize int64) (*TemporaryFile, func() error) {
	t := &TemporaryFile{fs: fs, buffer: &bytes.Buffer{}, maxSize: maxSize}
	return t, t.Close
}

func (t *TemporaryFile) Read(p []byte) (n int, err error) {
	if !t.rolledOver {
		return t.buffer.Read(p)
	}
	if !t.reading {
		if _, err := t.tempFile.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		t.reading = true
	}
	return t.tempFile.Read(p)
}

func (t *TemporaryFile) Write(p []byte) (n int, err error) {
	if t.reading {
		return 0, errors.New("write after read")
	}
	t.size += int64(len(p))
	if t.rolledOver {
		return t.tempFile.Write(p)
	}

	if t.size > t.maxSize {
		if err := t.Rollover(); err != nil {
			return 0, err
		}
		return t.tempFile.Write(p)
	}

	return t.buffer.Write(p)
}

// Rollover moves the buffered data to a temporary file.
func (t *TemporaryFile) Rollover() (err error) {
	if t.rolledOver {
		return nil
	}
	t.tempFile, err = afero.TempFile(t.fs, "", "spool")
	if err != nil {
		return errors.Wrap(err, "could not create tmp file")
	}
	t.rolledOver = true
	if _, err = io.Copy(t.tempFile, t.buffer); err != nil {
		return errors.Wrap(err, "could not fill tmp file")
	}
	t.buffer.Reset()
	return nil
}

// Close removes the temporary file.
func (t *TemporaryFile) Close() error {
	if t.rolledOver {
		if err := t.tempFile.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return err
		}
		t.rolledOver = false
		return t.fs.Remove(t.tempFile.Name())
	}
	t.buffer.Reset()
	return nil
}

// Size returns the number of bytes written.
func (t *TemporaryFile) Size() int64 {
	return t.size
}
