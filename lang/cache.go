package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// globalCache stores parse results keyed by source hash.
var globalCache sync.Map

// state tracks the parse of one source text.
type state struct {
	once sync.Once
	prog *Program
	err  error
}

// ParseReader reads all of r and parses it. Results are cached by source
// content, so parsing the same text again returns the same [*Program].
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	o.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return parseCached(ctx, o, string(data), opts...)
}

func parseCached(
	ctx context.Context,
	o options,
	source string,
	opts ...Option,
) (*Program, error) {
	key := strconv.FormatUint(xxh3.HashString(source), 36)

	value, hit := globalCache.LoadOrStore(key, new(state))

	entry, ok := value.(*state)
	if !ok {
		return nil, ErrInternalInvariant.
			With(slog.String("reason", "invalid cache entry type"))
	}

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", key),
		slog.Bool("cache_hit", hit),
	)

	entry.once.Do(func() {
		entry.prog, entry.err = Parse(ctx, source, opts...)
	})

	return entry.prog, entry.err
}

// ClearCache removes all cached parse results.
func ClearCache() {
	globalCache.Clear()
}
