package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where Hardhat writes artifacts relative to the project root.
const DefaultDir = "artifacts"

var _ Resolver = (*DirResolver)(nil)

// DirResolver resolves artifacts from a Hardhat artifacts directory or a Foundry out directory.
//
// Both tools lay artifacts out as <dir>/<source path>/<Contract>.json. Debug files (*.dbg.json)
// and the build-info directory are ignored.
type DirResolver struct {
	dir string
}

// NewDirResolver returns a resolver rooted at dir.
func NewDirResolver(dir string) *DirResolver {
	return &DirResolver{dir: dir}
}

// Resolve finds the artifact for name, which is either a bare contract name ("BullBear") or a
// fully qualified one ("contracts/BullBear.sol:BullBear"). A bare name must match exactly one
// artifact.
func (r *DirResolver) Resolve(name string) (*Artifact, error) {
	sourceName, contractName, err := ParseName(name)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(r.dir); err != nil {
		return nil, fmt.Errorf("failed to read artifacts directory %s: %w", r.dir, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("artifacts path %s is not a directory", r.dir)
	}

	var matches []string
	err = filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}

			return nil
		}
		if d.Name() != contractName+".json" {
			return nil
		}
		if sourceName != "" && !matchesSource(r.dir, path, sourceName) {
			return nil
		}
		matches = append(matches, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search artifacts directory %s: %w", r.dir, err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, r.dir)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s matches %s; use a fully qualified name",
			ErrAmbiguousArtifact, name, strings.Join(matches, ", "),
		)
	}

	return r.load(matches[0], contractName)
}

func (r *DirResolver) load(path, contractName string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	a, err := Parse(data, sourceFromPath(r.dir, path), contractName)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	return a, nil
}

// sourceFromPath derives the source name from the artifact location, which is the directory
// the artifact sits in, relative to the artifacts root.
func sourceFromPath(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return ""
	}

	return filepath.ToSlash(rel)
}

// matchesSource reports whether the artifact at path was compiled from sourceName. Foundry
// flattens sources to their base name, so a base name match is accepted too.
func matchesSource(root, path, sourceName string) bool {
	got := sourceFromPath(root, path)
	if got == sourceName {
		return true
	}

	return !strings.Contains(got, "/") && got == filepath.Base(sourceName)
}
