// Package rom reads game images for cores that want the bytes in memory rather than a
// path. Archives are unpacked and the first entry with a wanted extension is used.
package rom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxSize = 64 * 1024 * 1024

var (
	ErrNoImage           = errors.New("no rom image in archive")
	ErrUnsupportedFormat = errors.New("unsupported rom format")
	ErrTooLarge          = errors.New("rom image too large")
)

type container int

const (
	containerUnknown container = iota
	containerRaw
	containerZip
	containerSevenZip
	containerGzip
	containerRar
	containerZstd
)

var magics = []struct {
	prefix    []byte
	container container
}{
	{[]byte("PK\x03\x04"), containerZip},
	{[]byte("PK\x05\x06"), containerZip},
	{[]byte("Rar!"), containerRar},
	{[]byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}, containerSevenZip},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, containerZstd},
	{[]byte{0x1f, 0x8b}, containerGzip},
}

var archiveExts = map[string]container{
	".zip": containerZip,
	".7z":  containerSevenZip,
	".gz":  containerGzip,
	".tgz": containerGzip,
	".rar": containerRar,
	".zst": containerZstd,
}

// Load returns the image at path and the name it was found under. extensions are the
// core's accepted extensions, with leading dots. With no extensions any entry matches and
// an unrecognized file is read as is.
func Load(path string, extensions []string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var header [8]byte
	n, err := io.ReadFull(f, header[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", err
	}

	switch sniff(header[:n], path, extensions) {
	case containerRaw:
		buf, err := readLimited(f)
		if err != nil {
			return nil, "", err
		}
		return buf, filepath.Base(path), nil
	case containerZip:
		return fromZip(path, extensions)
	case containerSevenZip:
		return fromSevenZip(path, extensions)
	case containerGzip:
		return fromGzip(f, path, extensions)
	case containerRar:
		return fromRar(path, extensions)
	case containerZstd:
		return fromZstd(f, path)
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// ReadRaw returns the file at path as is, without looking inside archives.
func ReadRaw(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func sniff(header []byte, path string, extensions []string) container {
	for _, m := range magics {
		if bytes.HasPrefix(header, m.prefix) {
			return m.container
		}
	}

	if c, ok := archiveExts[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}

	if len(extensions) == 0 || wanted(path, extensions) {
		return containerRaw
	}
	return containerUnknown
}

func wanted(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func readLimited(r io.Reader) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if len(buf) > maxSize {
		return nil, ErrTooLarge
	}
	return buf, nil
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
