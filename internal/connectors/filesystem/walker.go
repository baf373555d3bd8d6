// Package filesystem lists and watches local guideline documents.
package filesystem

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
)

// Walk lazily yields the supported files under root in lexical order.
// Hidden files and directories are skipped. Errors for individual entries
// are yielded and the walk continues; a cancelled context ends the walk
// after yielding ctx.Err(). Ranging over the sequence again restarts the walk.
func Walk(ctx context.Context, root string, supports func(path string) bool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield("", ctxErr)
				return filepath.SkipAll
			}

			if err != nil {
				if !yield(path, err) {
					return filepath.SkipAll
				}
				// Unreadable directory: skip its contents, keep walking
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if path != root && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if supports != nil && !supports(path) {
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// walkDirs yields root and every non-hidden directory below it.
func walkDirs(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(path, err) {
					return filepath.SkipAll
				}
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
