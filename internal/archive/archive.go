package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// ModelExt is the extension of model files inside a pack.
const ModelExt = ".smdl"

// OpenPack opens a model pack: a directory or a .zip archive. When every entry of an archive
// lives under a single top-level directory, that directory is the pack root. The returned
// closer must be called when the pack is no longer needed.
func OpenPack(packPath string) (fs.FS, io.Closer, error) {
	info, err := os.Stat(packPath)
	if err != nil {
		return nil, nil, fmt.Errorf("archive: %w", err)
	}
	if info.IsDir() {
		return os.DirFS(packPath), dirCloser{}, nil
	}
	if !strings.EqualFold(path.Ext(packPath), ".zip") {
		return nil, nil, fmt.Errorf("archive: %s is neither a directory nor a .zip pack", packPath)
	}
	r, err := zip.OpenReader(packPath)
	if err != nil {
		return nil, nil, fmt.Errorf("archive: %w", err)
	}
	root := commonRoot(r.File)
	if root == "" {
		return r, r, nil
	}
	sub, err := fs.Sub(r, root)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("archive: %w", err)
	}
	return sub, r, nil
}

type dirCloser struct{}

func (dirCloser) Close() error { return nil }

// commonRoot returns the single top-level directory shared by all entries, or "".
func commonRoot(files []*zip.File) string {
	root := ""
	for _, f := range files {
		top, _, found := strings.Cut(f.Name, "/")
		if !found || top == "" {
			return ""
		}
		if root == "" {
			root = top
		} else if top != root {
			return ""
		}
	}
	return root
}

// ListModels returns the slash-separated paths of all model files in fsys, sorted.
func ListModels(fsys fs.FS) ([]string, error) {
	var names []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(path.Ext(p), ModelExt) {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
