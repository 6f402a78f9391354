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

// Package archive stores reports in a SQLite Archive (sqlar). Members are
// zlib compressed unless compression does not save space, as the sqlar
// format defines. Members can be read as report streams.
package archive

import (
	"bytes"
	"compress/zlib"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/sandboxreport/archive/spooled"
	"github.com/forensicanalysis/sandboxreport/stream"
)

// Separator divides an archive path and a member name in a report
// location, e.g. "reports.sqlar::cuckoo/1.json".
const Separator = "::"

// spoolSize is the size up to which compressed members are kept in memory.
const spoolSize = 32 << 20

const table = `CREATE TABLE IF NOT EXISTS sqlar(
  name TEXT PRIMARY KEY,  -- name of the file
  mode INT,               -- access permissions
  mtime INT,              -- last modification time
  sz INT,                 -- original file size
  data BLOB               -- compressed content
);`

// Entry describes an archive member.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Archive is a SQLite Archive. Its methods may be called concurrently.
type Archive struct {
	mu      sync.Mutex
	conn    *sqlite.Conn
	spoolFs afero.Fs
}

// New opens the archive at url and creates it if it does not exist.
func New(url string) (*Archive, error) {
	conn, err := sqlite.OpenConn(url, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", url)
	}
	if err := sqlitex.ExecScript(conn, table); err != nil {
		conn.Close()
		return nil, err
	}
	return &Archive{conn: conn, spoolFs: afero.NewOsFs()}, nil
}

// SplitLocation splits a report location into the archive and the member.
// ok is false if location does not reference an archive member.
func SplitLocation(location string) (archivePath, member string, ok bool) {
	i := strings.Index(location, Separator)
	if i < 0 {
		return "", "", false
	}
	return location[:i], location[i+len(Separator):], true
}

// Add stores the content of r as member name. An existing member is
// replaced.
func (a *Archive) Add(name string, r io.Reader) error {
	name = normalizeFilename(name)

	spool, teardown := spooled.New(a.spoolFs, spoolSize)
	defer func() {
		if err := teardown(); err != nil {
			log.Warnf("could not remove spool file: %s", err)
		}
	}()

	// incompressible members are stored raw, readers that cannot rewind are
	// buffered for that
	src := r
	seeker, seekable := r.(io.Seeker)
	var raw *spooled.TemporaryFile
	if !seekable {
		var rawTeardown func() error
		raw, rawTeardown = spooled.New(a.spoolFs, spoolSize)
		defer func() {
			if err := rawTeardown(); err != nil {
				log.Warnf("could not remove spool file: %s", err)
			}
		}()
		src = io.TeeReader(r, raw)
	}

	// compress to learn the blob size before inserting
	w := zlib.NewWriter(spool)
	size, err := io.Copy(w, src)
	if err != nil {
		return errors.Wrapf(err, "could not compress %s", name)
	}
	if err := w.Close(); err != nil {
		return err
	}

	var content io.Reader = spool
	blobSize := spool.Size()
	if blobSize >= size {
		if seekable {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return errors.Wrapf(err, "could not rewind %s", name)
			}
			content = r
		} else {
			content = raw
		}
		blobSize = size
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	err = sqlitex.Exec(a.conn,
		`INSERT OR REPLACE INTO sqlar (name, mode, mtime, sz, data) VALUES (?, ?, ?, ?, zeroblob(?))`,
		nil, name, int64(0644), time.Now().Unix(), size, blobSize)
	if err != nil {
		return errors.Wrapf(err, "could not insert %s", name)
	}

	blob, err := a.conn.OpenBlob("", "sqlar", "data", a.conn.LastInsertRowID(), true)
	if err != nil {
		return err
	}
	if _, err := io.Copy(blob, content); err != nil {
		blob.Close()
		return errors.Wrapf(err, "could not write %s", name)
	}
	return blob.Close()
}

// AddFile stores the file at name of fs as member name.
func (a *Archive) AddFile(fs afero.Fs, name string) error {
	f, err := fs.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.Add(name, f)
}

// ReadFile returns the uncompressed content of a member.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	name = normalizeFilename(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	var rowid, size, blobSize int64
	found := false
	err := sqlitex.Exec(a.conn, `SELECT rowid, sz, length(data) FROM sqlar WHERE name = ?`,
		func(stmt *sqlite.Stmt) error {
			rowid, size, blobSize = stmt.ColumnInt64(0), stmt.ColumnInt64(1), stmt.ColumnInt64(2)
			found = true
			return nil
		}, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrap(os.ErrNotExist, name)
	}
	if blobSize == 0 {
		return []byte{}, nil
	}

	blob, err := a.conn.OpenBlob("", "sqlar", "data", rowid, false)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	if blobSize == size {
		return ioutil.ReadAll(blob)
	}
	r, err := zlib.NewReader(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decompress %s", name)
	}
	defer r.Close()
	data := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(data, r); err != nil {
		return nil, errors.Wrapf(err, "could not decompress %s", name)
	}
	return data.Bytes(), nil
}

// Open returns a reader of a member.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	data, err := a.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

// Stream returns a report stream of a member. The member is read when the
// stream is first used.
func (a *Archive) Stream(name string) *stream.Stream {
	return stream.New(name, func() (io.ReadCloser, error) {
		return a.Open(name)
	})
}

// Entries lists the members sorted by name. Directory entries are skipped.
func (a *Archive) Entries() ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := []Entry{}
	err := sqlitex.Exec(a.conn, `SELECT name, sz, mtime FROM sqlar WHERE data IS NOT NULL ORDER BY name`,
		func(stmt *sqlite.Stmt) error {
			entries = append(entries, Entry{
				Name:    stmt.ColumnText(0),
				Size:    stmt.ColumnInt64(1),
				ModTime: time.Unix(stmt.ColumnInt64(2), 0),
			})
			return nil
		})
	return entries, err
}

// Names lists the member names.
func (a *Archive) Names() ([]string, error) {
	entries, err := a.Entries()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn.Close()
}

func normalizeFilename(name string) string {
	name = filepath.ToSlash(name)
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}
