package lang

import (
	"io"
	"os"

	"github.com/ardnew/nib/log"
)

// DefaultMaxDepth is the default limit on nested evaluation frames.
const DefaultMaxDepth = 10000

// options holds the configuration shared by the parser and the evaluator.
type options struct {
	logger   log.Logger
	output   io.Writer
	maxDepth int
	trace    bool
}

// Option configures parsing and evaluation.
type Option func(*options)

// WithLogger sets the logger that receives parse and evaluation events.
// The zero [log.Logger] discards everything.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithOutput sets the writer used by the puts builtin. The default is
// [os.Stdout].
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w == nil {
			w = io.Discard
		}

		o.output = w
	}
}

// WithMaxDepth limits the number of nested evaluation frames.
// Values less than 1 select [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		o.maxDepth = depth
	}
}

// WithTrace enables logging of every evaluation step at trace level.
func WithTrace(enable bool) Option {
	return func(o *options) { o.trace = enable }
}

func makeOptions(opts ...Option) options {
	o := options{
		output:   os.Stdout,
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
