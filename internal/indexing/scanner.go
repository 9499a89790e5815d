package indexing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/substratelabs/hsi/internal/config"
	hsierrors "github.com/substratelabs/hsi/internal/errors"
	"github.com/substratelabs/hsi/internal/parser"
)

// FileScanner walks the project tree and selects the files worth parsing.
type FileScanner struct {
	cfg    *config.Config
	parser *parser.TypeParser
}

// NewFileScanner creates a scanner over the configured include and
// exclude patterns.
func NewFileScanner(cfg *config.Config, p *parser.TypeParser) *FileScanner {
	return &FileScanner{cfg: cfg, parser: p}
}

// Scan returns the project files that match the configured patterns and
// have a supported extension. It fails once the configured file count
// limit is exceeded.
func (s *FileScanner) Scan(ctx context.Context, root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && (s.excluded(rel+"/") || s.excluded(rel)) {
				return filepath.SkipDir
			}
			if !s.cfg.Index.FollowSymlinks && d.Type()&fs.ModeSymlink != 0 {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.ShouldProcess(rel, path) {
			return nil
		}

		paths = append(paths, path)
		if len(paths) > s.cfg.Index.MaxFileCount {
			return hsierrors.NewScanError("walk",
				fmt.Errorf("file count exceeds limit of %d", s.cfg.Index.MaxFileCount))
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*hsierrors.ScanError); ok {
			return nil, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, hsierrors.NewScanError("walk", err)
	}
	return paths, nil
}

// ShouldProcess reports whether one file passes pattern and extension
// filtering. rel is the slash-separated path relative to the root.
func (s *FileScanner) ShouldProcess(rel, path string) bool {
	if !s.parser.Supported(strings.ToLower(filepath.Ext(path))) {
		return false
	}
	if s.excluded(rel) {
		return false
	}
	for _, pattern := range s.cfg.Include {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func (s *FileScanner) excluded(rel string) bool {
	for _, pattern := range s.cfg.Exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
