package tree

// Options configures a branch.
type Options struct {
	// BasketSize is the number of buffered bytes per leaf that triggers a
	// basket write.
	BasketSize int
	// SplitLevel is the struct depth down to which members get their own
	// leaves. Zero streams the whole value into one leaf.
	SplitLevel int
}

// DefaultOptions are the ROOT defaults.
var DefaultOptions = Options{
	BasketSize: 32000,
	SplitLevel: 99,
}

// WithBasketSize sets the basket size in bytes.
func WithBasketSize(n int) func(o *Options) {
	return func(o *Options) {
		o.BasketSize = n
	}
}

// WithSplitLevel sets the split level.
func WithSplitLevel(n int) func(o *Options) {
	return func(o *Options) {
		o.SplitLevel = n
	}
}
