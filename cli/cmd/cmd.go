package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
)

type (
	contextKey    struct{}
	searchPathKey struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithSearchPath returns a new context.Context carrying the directories
// searched for source files named by relative path.
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// stdout returns the writer commands print results to.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// kongVar returns the value of the interpolation variable name, or "" if
// unset.
func kongVar(ctx context.Context, name string) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		return ktx.Model.Vars()[name]
	}

	return ""
}

// stdinSource names standard input on the command line.
const stdinSource = "-"

// sourceExt is appended to names not found as given.
const sourceExt = ".nib"

// Source is one named input of a command.
type Source struct {
	Name string
	Path string // empty for stdin
}

// Open returns a reader over the source content.
func (s Source) Open() (io.ReadCloser, error) {
	if s.Path == "" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, ErrReadSource.With(slog.String("source", s.Name)).Wrap(err)
	}

	return f, nil
}

// fileKey uniquely identifies a file by its device and inode numbers, so the
// same file reached through different paths or symlinks is read once.
type fileKey struct {
	dev uint64
	ino uint64
}

func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// resolveSources locates each named source and drops repeats. An empty list
// selects stdin. All occurrences of "-" collapse to a single stdin source
// placed last so it reads after all regular files.
func resolveSources(ctx context.Context, names []string) ([]Source, error) {
	if len(names) == 0 {
		return []Source{{Name: stdinSource}}, nil
	}

	var (
		sources  []Source
		hasStdin bool
	)

	seen := make(map[fileKey]struct{})
	dirs := searchPathFrom(ctx)

	for _, name := range names {
		if name == stdinSource {
			hasStdin = true

			continue
		}

		path, err := locate(name, dirs)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, ErrReadSource.With(slog.String("source", name)).Wrap(err)
		}

		if key, ok := makeFileKey(info); ok {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		sources = append(sources, Source{Name: name, Path: path})
	}

	if hasStdin {
		sources = append(sources, Source{Name: stdinSource})
	}

	return sources, nil
}

// locate returns the path of the named source file. Names that exist as
// given win. Relative names are then tried in each search directory, first
// as given and then with the ".nib" extension.
func locate(name string, dirs []string) (string, error) {
	candidates := []string{name}
	if filepath.Ext(name) != sourceExt {
		candidates = append(candidates, name+sourceExt)
	}

	try := func(path string) (string, bool) {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return "", false
		}

		info, err := os.Stat(resolved)
		if err != nil || info.IsDir() {
			return "", false
		}

		return resolved, true
	}

	for _, c := range candidates {
		if path, ok := try(c); ok {
			return path, nil
		}
	}

	if !filepath.IsAbs(name) && !strings.HasPrefix(name, ".") {
		for _, dir := range dirs {
			for _, c := range candidates {
				if path, ok := try(filepath.Join(dir, c)); ok {
					return path, nil
				}
			}
		}
	}

	return "", ErrSourceNotFound.With(
		slog.String("source", name),
		slog.Any("path", dirs),
	)
}
