package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/gitlab-org/labkit/log"
)

// DefaultPattern matches the manifest of every packaged unit below a search root.
const DefaultPattern = "**/META-INF/MANIFEST.MF"

// Resource is a single manifest that can be opened for reading.
type Resource interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Lister enumerates the manifests visible to the process.
type Lister interface {
	ListManifests() ([]Resource, error)
}

// BytesResource is an in-memory manifest.
type BytesResource struct {
	ResourceName string
	Data         []byte
}

func (r *BytesResource) Name() string {
	return r.ResourceName
}

func (r *BytesResource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(r.Data)), nil
}

// StaticLister always lists the same resources, in order.
type StaticLister []Resource

func (l StaticLister) ListManifests() ([]Resource, error) {
	return l, nil
}

type fsResource struct {
	fsys fs.FS
	root string
	path string
}

func (r *fsResource) Name() string {
	if r.root == "" {
		return r.path
	}
	return path.Join(r.root, r.path)
}

func (r *fsResource) Open() (io.ReadCloser, error) {
	return r.fsys.Open(r.path)
}

// FSLister lists every file of FS matching Pattern, a doublestar glob.
// Root is only used to give resources a readable name.
type FSLister struct {
	FS      fs.FS
	Root    string
	Pattern string
}

// NewDirLister lists the manifests below dir using DefaultPattern.
func NewDirLister(dir string) *FSLister {
	return &FSLister{FS: os.DirFS(dir), Root: dir, Pattern: DefaultPattern}
}

func (l *FSLister) ListManifests() ([]Resource, error) {
	if l.FS == nil {
		return nil, errors.New("manifest: no file system to search")
	}

	pattern := l.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	matches, err := doublestar.Glob(l.FS, pattern)
	if err != nil {
		return nil, fmt.Errorf("manifest: glob %q in %q: %w", pattern, l.Root, err)
	}

	resources := make([]Resource, 0, len(matches))
	for _, match := range matches {
		resources = append(resources, &fsResource{fsys: l.FS, root: l.Root, path: match})
	}

	return resources, nil
}

// MultiLister concatenates the resources of several listers. A lister that
// fails is skipped; an error is only returned when every lister failed.
type MultiLister []Lister

func (m MultiLister) ListManifests() ([]Resource, error) {
	var (
		resources []Resource
		errs      []error
	)

	for _, lister := range m {
		listed, err := lister.ListManifests()
		if err != nil {
			log.WithError(err).Debug("manifest: skipping source that could not be listed")
			errs = append(errs, err)
			continue
		}
		resources = append(resources, listed...)
	}

	if len(m) > 0 && len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}

	return resources, nil
}
