package tagnorm

// Option configures an extraction call.
type Option func(*config)

type config struct {
	skipArtwork bool
	strict      bool
}

func newConfig(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithoutArtwork drops embedded cover art from the returned record. Useful
// for bulk scans where the caller only needs text fields and properties.
func WithoutArtwork() Option {
	return func(c *config) {
		c.skipArtwork = true
	}
}

// WithStrict turns dialect-level parse failures into errors. By default a
// corrupt dialect structure contributes a warning and the call still
// succeeds with whatever the other stages produced.
func WithStrict() Option {
	return func(c *config) {
		c.strict = true
	}
}
