package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// discoverImageFiles expands files and directories into the list of image
// files to scan. Explicit files are kept in argument order; directory
// contents are sorted.
func discoverImageFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var imageFiles []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		imageFiles = append(imageFiles, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			if shouldIncludeFile(arg, includePatterns, excludePatterns) {
				add(arg)
			}
			continue
		}
		files, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}

	return imageFiles, nil
}

// discoverInDirectory lists the image files of dir, descending into
// subdirectories when recursive is set.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// shouldIncludeFile keeps supported images that match an include pattern (or
// any, without patterns) and no exclude pattern.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if !utils.IsSupportedImage(path) {
		return false
	}
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks the base name of path against glob patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
