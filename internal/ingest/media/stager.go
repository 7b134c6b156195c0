// Package media stages downloaded message media as temporary files for the duration of one
// message's processing.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ErrEmpty is returned when there is nothing to stage.
var ErrEmpty = errors.New("media: empty payload")

// File is a staged media file handed to the conversation collaborator.
type File struct {
	Path     string
	MimeType string
	Size     int64
	fs       afero.Fs
}

// ReadAll returns the staged bytes.
func (f File) ReadAll() ([]byte, error) {
	if f.fs == nil {
		return nil, errors.New("media: file is not staged")
	}
	return afero.ReadFile(f.fs, f.Path)
}

// Staged owns one staged file until Release.
type Staged struct {
	File
	once sync.Once
	err  error
}

// Release removes the file. It is safe to call more than once; later calls return the first result.
func (s *Staged) Release() error {
	s.once.Do(func() {
		if err := s.fs.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.err = err
		}
	})
	return s.err
}

// Stager writes media under one directory of an afero filesystem.
type Stager struct {
	fs  afero.Fs
	dir string
}

// NewStager returns a stager writing into dir on fs (afero.NewOsFs() in production).
func NewStager(fs afero.Fs, dir string) *Stager {
	if dir == "" {
		dir = "temp"
	}
	return &Stager{fs: fs, dir: dir}
}

// FileName is the staged file name for a message: <tenant>_<messageID>.ogg with path-unsafe
// characters replaced.
func FileName(tenantID, messageID string) string {
	return safeName(tenantID) + "_" + safeName(messageID) + ".ogg"
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// Stage writes data to a new file for (tenantID, messageID). On a write failure the partial
// file is removed before returning.
func (s *Stager) Stage(tenantID, messageID, mimeType string, data []byte) (*Staged, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("media: create dir: %w", err)
	}
	path := filepath.Join(s.dir, FileName(tenantID, messageID))
	if err := afero.WriteFile(s.fs, path, data, 0o600); err != nil {
		_ = s.fs.Remove(path)
		return nil, fmt.Errorf("media: write %s: %w", path, err)
	}
	if mimeType == "" {
		mimeType = "audio/ogg"
	}
	return &Staged{File: File{Path: path, MimeType: mimeType, Size: int64(len(data)), fs: s.fs}}, nil
}
