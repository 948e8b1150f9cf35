package ingest

// Option configures a Reader.
type Option func(*Reader)

// WithConcurrency bounds the number of files read at once.
func WithConcurrency(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithCommentPrefix sets the marker of lines dropped while reading.
func WithCommentPrefix(prefix string) Option {
	return func(r *Reader) {
		r.commentPrefix = prefix
	}
}

// WithMaxBytes caps the size of a single file. Zero means unlimited.
func WithMaxBytes(n int64) Option {
	return func(r *Reader) {
		if n >= 0 {
			r.maxBytes = n
		}
	}
}
