package resolver_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/resolver"
	"github.com/gatekeep/gatekeep/internal/domain"
)

var errNotFound = errors.New("not found")

func lookPathIn(found map[string]string) func(string) (string, error) {
	return func(file string) (string, error) {
		if p, ok := found[file]; ok {
			return p, nil
		}
		return "", errNotFound
	}
}

func tarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0o755, Size: int64(len(body)), Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestResolver_PrefersBundledThenLocalThenContainer(t *testing.T) {
	archive := fstest.MapFS{
		"tools.tar.gz": {Data: tarball(t, map[string]string{"bin/shfmt": "#!/bin/sh\n"})},
	}
	bundled := &resolver.BundledStrategy{Dir: t.TempDir(), Archive: archive, ArchivePath: "tools.tar.gz"}
	local := resolver.LocalStrategy{LookPath: lookPathIn(map[string]string{"ruff": "/usr/bin/ruff", "shfmt": "/usr/bin/shfmt"})}
	container := resolver.ContainerStrategy{
		Image: "ghcr.io/acme/linters:1", Root: "/src",
		LookPath: lookPathIn(map[string]string{"docker": "/usr/bin/docker"}),
	}
	r := resolver.New(nil, bundled, local, container)

	inv, err := r.Resolve(domain.CheckDescriptor{Name: "shfmt", Command: "shfmt"})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyBundled, inv.Strategy)
	assert.Equal(t, filepath.Join(bundled.Dir, "shfmt"), inv.Path)

	inv, err = r.Resolve(domain.CheckDescriptor{Name: "ruff", Command: "ruff"})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyLocal, inv.Strategy)
	assert.Equal(t, "/usr/bin/ruff", inv.Path)

	inv, err = r.Resolve(domain.CheckDescriptor{Name: "hadolint", Command: "hadolint"})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyContainer, inv.Strategy)
	assert.Equal(t, []string{
		"/usr/bin/docker", "run", "--rm", "-v", "/src:/work", "-w", "/work",
		"ghcr.io/acme/linters:1", "hadolint", "-",
	}, inv.Argv([]string{"-"}))
}

func TestResolver_UnavailableTool(t *testing.T) {
	r := resolver.New(nil,
		resolver.LocalStrategy{LookPath: lookPathIn(nil)},
		resolver.ContainerStrategy{LookPath: lookPathIn(map[string]string{"docker": "/usr/bin/docker"})},
	)
	_, err := r.Resolve(domain.CheckDescriptor{Name: "mypy", Command: "mypy"})
	assert.ErrorIs(t, err, domain.ErrToolUnavailable)
}

type countingStrategy struct{ calls atomic.Int32 }

func (*countingStrategy) Kind() domain.StrategyKind { return domain.StrategyLocal }

func (c *countingStrategy) Lookup(d domain.CheckDescriptor) (domain.Invocation, bool) {
	c.calls.Add(1)
	return domain.Invocation{Strategy: domain.StrategyLocal, Path: "/bin/" + d.Command}, true
}

func TestResolver_CachesPerCheckName(t *testing.T) {
	s := &countingStrategy{}
	r := resolver.New(nil, s)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Resolve(domain.CheckDescriptor{Name: "gofmt", Command: "gofmt"})
		}()
	}
	wg.Wait()
	before := s.calls.Load()

	_, err := r.Resolve(domain.CheckDescriptor{Name: "gofmt", Command: "gofmt"})
	require.NoError(t, err)
	assert.Equal(t, before, s.calls.Load(), "cached resolution is reused")
}

func TestBundledStrategy_NoArchive(t *testing.T) {
	s := &resolver.BundledStrategy{Dir: t.TempDir(), Archive: fstest.MapFS{}, ArchivePath: "tools.tar.gz"}
	_, ok := s.Lookup(domain.CheckDescriptor{Name: "x", Command: "x"})
	assert.False(t, ok)
	assert.NoError(t, s.Err())
}

func TestBundledStrategy_CorruptArchive(t *testing.T) {
	s := &resolver.BundledStrategy{
		Dir:         t.TempDir(),
		Archive:     fstest.MapFS{"tools.tar.gz": {Data: []byte("not gzip")}},
		ArchivePath: "tools.tar.gz",
	}
	_, ok := s.Lookup(domain.CheckDescriptor{Name: "x", Command: "x"})
	assert.False(t, ok)
	assert.Error(t, s.Err())
}

func TestContainerStrategy_ConfiguredRuntime(t *testing.T) {
	s := resolver.ContainerStrategy{
		Runtime: "podman", Root: "/p",
		LookPath: lookPathIn(map[string]string{"docker": "/usr/bin/docker", "podman": "/usr/bin/podman"}),
	}
	inv, ok := s.Lookup(domain.CheckDescriptor{Name: "bandit", Command: "bandit", Image: "py-tools"})
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/podman", inv.Path)
	assert.Contains(t, inv.Prefix, "py-tools")
}
