package resolver

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// BundledStrategy serves tools shipped inside the gatekeep binary. The
// archive is extracted into Dir once per process on first use.
type BundledStrategy struct {
	// Dir is the private tool cache, e.g. <user cache>/gatekeep/tools/<version>.
	Dir string
	// Archive holds the gzipped tarball. Nil means nothing is bundled.
	Archive fs.FS
	// ArchivePath is the archive's path inside Archive.
	ArchivePath string

	once       sync.Once
	extractErr error
}

// NewBundledStrategy uses the archive embedded at build time, cached under
// the user cache directory for version.
func NewBundledStrategy(version string) *BundledStrategy {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return &BundledStrategy{
		Dir:         filepath.Join(base, "gatekeep", "tools", version),
		Archive:     bundledFS,
		ArchivePath: bundledArchive,
	}
}

func (*BundledStrategy) Kind() domain.StrategyKind { return domain.StrategyBundled }

func (s *BundledStrategy) Lookup(d domain.CheckDescriptor) (domain.Invocation, bool) {
	if s.Dir == "" {
		return domain.Invocation{}, false
	}
	bin := filepath.Join(s.Dir, binaryName(d.Command))
	if !isExecutable(bin) {
		s.once.Do(func() { s.extractErr = s.extract() })
		if s.extractErr != nil || !isExecutable(bin) {
			return domain.Invocation{}, false
		}
	}
	return domain.Invocation{Strategy: domain.StrategyBundled, Path: bin}, true
}

// Err reports why extraction failed, if it did.
func (s *BundledStrategy) Err() error { return s.extractErr }

func (s *BundledStrategy) extract() error {
	if s.Archive == nil {
		return nil
	}
	f, err := s.Archive.Open(s.ArchivePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening bundled tools: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating tool cache: %w", err)
	}

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		// Tools are stored flat; the base name also blocks path traversal.
		name := filepath.Base(header.Name)
		if err := writeExecutable(filepath.Join(s.Dir, name), tr); err != nil {
			return fmt.Errorf("extracting %s: %w", name, err)
		}
	}
}

func writeExecutable(dst string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func binaryName(command string) string {
	if runtime.GOOS == "windows" {
		return command + ".exe"
	}
	return command
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
