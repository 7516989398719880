package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"subcards/internal/logging"
	"subcards/internal/textutil"
)

// ErrNoUnits is returned when a directory holds no subtitle files.
var ErrNoUnits = errors.New("no subtitle files found")

// Discover walks dir recursively and returns files whose extension matches
// one of extensions (case-insensitive), in natural order of their base names.
func Discover(dir string, extensions []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat subtitles dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("subtitles path %q is not a directory", dir)
	}
	if len(extensions) == 0 {
		extensions = []string{".srt"}
	}
	wanted := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		wanted[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := wanted[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk subtitles dir: %w", err)
	}

	slices.SortStableFunc(files, func(a, b string) int {
		an, bn := filepath.Base(a), filepath.Base(b)
		switch {
		case textutil.NaturalLess(an, bn):
			return -1
		case textutil.NaturalLess(bn, an):
			return 1
		}
		return strings.Compare(a, b)
	})
	return files, nil
}

// UnitID derives the unit identifier from path relative to root: the
// slash-separated relative path without its extension. Files directly under
// root keep their bare stem ("ep01"); nested files include their folders
// ("season2/ep01") so equal stems in different folders stay distinct.
func UnitID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel)
}

// ReadUnits loads each path under root into a RawUnit, preserving order.
// Files that cannot be read are skipped and reported as UnitErrors; the
// returned error is non-nil only when ctx is cancelled.
func ReadUnits(ctx context.Context, root string, paths []string) ([]RawUnit, []UnitError, error) {
	units := make([]RawUnit, 0, len(paths))
	var failures []UnitError
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		id := UnitID(root, path)
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, UnitError{Unit: id, Err: fmt.Errorf("read %s: %w", path, err)})
			continue
		}
		units = append(units, RawUnit{ID: id, Data: data})
	}
	return units, failures, nil
}

// LoadDir discovers, reads, and builds a corpus from a subtitle directory.
// Unreadable and undecodable files are skipped, logged, and returned as
// UnitErrors.
func LoadDir(ctx context.Context, dir string, extensions []string, opts Options) (*Corpus, []UnitError, error) {
	paths, err := Discover(dir, extensions)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoUnits, dir)
	}
	units, readErrs, err := ReadUnits(ctx, dir, paths)
	if err != nil {
		return nil, nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, failure := range readErrs {
		logging.WarnWithContext(logger, "subtitle unit skipped", "unit_unreadable",
			logging.String(logging.FieldUnit, failure.Unit),
			logging.String(logging.FieldErrorHint, "check the file exists and is readable"),
			logging.String(logging.FieldImpact, "unit contributes no lines"),
			logging.Error(failure.Err),
		)
	}
	c, decodeErrs, err := Build(ctx, units, opts)
	if err != nil {
		return nil, nil, err
	}
	return c, append(readErrs, decodeErrs...), nil
}
