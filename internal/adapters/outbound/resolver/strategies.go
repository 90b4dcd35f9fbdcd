package resolver

import (
	"os/exec"
	"path/filepath"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// LocalStrategy finds tools on PATH.
type LocalStrategy struct {
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

func (LocalStrategy) Kind() domain.StrategyKind { return domain.StrategyLocal }

func (s LocalStrategy) Lookup(d domain.CheckDescriptor) (domain.Invocation, bool) {
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	p, err := lookPath(d.Command)
	if err != nil {
		return domain.Invocation{}, false
	}
	return domain.Invocation{Strategy: domain.StrategyLocal, Path: p}, true
}

// ContainerStrategy runs tools inside a container image with the project
// mounted at /work.
type ContainerStrategy struct {
	// Runtime is a container CLI name or path. Empty tries docker, then podman.
	Runtime string
	// Image is used for checks that do not name their own.
	Image string
	// Root is the project directory mounted into the container.
	Root     string
	LookPath func(file string) (string, error)
}

func (ContainerStrategy) Kind() domain.StrategyKind { return domain.StrategyContainer }

func (s ContainerStrategy) Lookup(d domain.CheckDescriptor) (domain.Invocation, bool) {
	image := d.Image
	if image == "" {
		image = s.Image
	}
	if image == "" {
		return domain.Invocation{}, false
	}
	runtimePath, ok := s.runtime()
	if !ok {
		return domain.Invocation{}, false
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return domain.Invocation{}, false
	}
	return domain.Invocation{
		Strategy: domain.StrategyContainer,
		Path:     runtimePath,
		Prefix:   []string{"run", "--rm", "-v", root + ":/work", "-w", "/work", image, d.Command},
	}, true
}

func (s ContainerStrategy) runtime() (string, bool) {
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	candidates := []string{"docker", "podman"}
	if s.Runtime != "" {
		candidates = []string{s.Runtime}
	}
	for _, c := range candidates {
		if p, err := lookPath(c); err == nil {
			return p, true
		}
	}
	return "", false
}
