package cache

// SaveOption adjusts a single blob save.
type SaveOption func(*saveOptions)

type saveOptions struct {
	exportName string
}

// WithExport additionally publishes the saved bytes to the configured
// exporter under name. The export is fire-and-forget: its outcome
// never affects the save result.
func WithExport(name string) SaveOption {
	return func(o *saveOptions) {
		o.exportName = name
	}
}

func applySaveOptions(opts []SaveOption) saveOptions {
	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
