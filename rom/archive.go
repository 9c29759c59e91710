package rom

import (
	"archive/tar"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/nwaples/rardecode/v2"
)

func fromZip(path string, extensions []string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !wanted(f.Name, extensions) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("zip: %s: %w", f.Name, err)
		}
		buf, err := readLimited(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("zip: %s: %w", f.Name, err)
		}
		return buf, filepath.Base(f.Name), nil
	}
	return nil, "", ErrNoImage
}

func fromSevenZip(path string, extensions []string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("7z: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !wanted(f.Name, extensions) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("7z: %s: %w", f.Name, err)
		}
		buf, err := readLimited(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("7z: %s: %w", f.Name, err)
		}
		return buf, filepath.Base(f.Name), nil
	}
	return nil, "", ErrNoImage
}

func fromRar(path string, extensions []string) ([]byte, string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("rar: %w", err)
	}
	defer r.Close()

	for {
		hdr, err := r.Next()
		if err == io.EOF {
			return nil, "", ErrNoImage
		}
		if err != nil {
			return nil, "", fmt.Errorf("rar: %w", err)
		}
		if hdr.IsDir || !wanted(hdr.Name, extensions) {
			continue
		}
		buf, err := readLimited(r)
		if err != nil {
			return nil, "", fmt.Errorf("rar: %s: %w", hdr.Name, err)
		}
		return buf, filepath.Base(hdr.Name), nil
	}
}

func fromGzip(r io.Reader, path string, extensions []string) ([]byte, string, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return fromTar(zr, extensions)
	}

	buf, err := readLimited(zr)
	if err != nil {
		return nil, "", fmt.Errorf("gzip: %w", err)
	}
	return buf, stripExt(filepath.Base(path)), nil
}

func fromTar(r io.Reader, extensions []string) ([]byte, string, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, "", ErrNoImage
		}
		if err != nil {
			return nil, "", fmt.Errorf("tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !wanted(hdr.Name, extensions) {
			continue
		}
		buf, err := readLimited(tr)
		if err != nil {
			return nil, "", fmt.Errorf("tar: %s: %w", hdr.Name, err)
		}
		return buf, filepath.Base(hdr.Name), nil
	}
}

func fromZstd(r io.Reader, path string) ([]byte, string, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("zstd: %w", err)
	}
	defer zr.Close()

	buf, err := readLimited(zr)
	if err != nil {
		return nil, "", fmt.Errorf("zstd: %w", err)
	}
	return buf, stripExt(filepath.Base(path)), nil
}
