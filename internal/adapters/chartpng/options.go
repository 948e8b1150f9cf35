package chartpng

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
		if height > 0 {
			r.height = height
		}
	}
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		r.title = title
	}
}
