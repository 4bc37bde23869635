package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type ErrDirectoryNotFound struct {
	error
}

func NewErrDirectoryNotFound(dir string) *ErrDirectoryNotFound {
	return &ErrDirectoryNotFound{fmt.Errorf("directory %s does not exist", dir)}
}

// Options narrows the listing of a directory.
type Options struct {
	// Pattern is matched against the base name with filepath.Match. Empty matches everything.
	Pattern string
	// Exclude lists base names that are never returned.
	Exclude []string
	// Skip drops the first entries of the sorted listing.
	Skip int
	// Limit caps the number of returned entries. Zero means no limit.
	Limit int
}

// CheckDirectory returns ErrDirectoryNotFound if dir is missing or is not a directory.
func CheckDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewErrDirectoryNotFound(dir)
		}
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return NewErrDirectoryNotFound(dir)
	}
	return nil
}

// List returns the regular files found directly within dir, sorted by name.
// Subdirectories are not descended into.
func List(dir string, opts Options) ([]string, error) {
	if err := CheckDirectory(dir); err != nil {
		return nil, err
	}

	if opts.Pattern != "" {
		if _, err := filepath.Match(opts.Pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", opts.Pattern, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = struct{}{}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, found := excluded[e.Name()]; found {
			continue
		}
		if opts.Pattern != "" {
			if ok, _ := filepath.Match(opts.Pattern, e.Name()); !ok {
				continue
			}
		}
		names = append(names, e.Name())
	}
	// os.ReadDir already sorts by name; keep the ordering explicit.
	sort.Strings(names)

	if opts.Skip > 0 {
		if opts.Skip >= len(names) {
			names = names[:0]
		} else {
			names = names[opts.Skip:]
		}
	}
	if opts.Limit > 0 && len(names) > opts.Limit {
		names = names[:opts.Limit]
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}
