// Package archive implements the image-level operations of spec.md
// §4.8 (C8): capture, append, update, delete, apply, test, export, and
// split, expressed as transactions over the binary layout (C1), hashing
// (C2), chunked resource streams (C3), codec pool (C4), dedup/offset
// table (C5), metadata resource (C6), and XML manifest (C7) packages.
package archive

import (
	"github.com/wimpack/wim/chunkio"
	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/glob"
	"github.com/wimpack/wim/internal/options"
	"github.com/wimpack/wim/platform"
)

// Config configures one archive operation: compression codec, codec
// pool size, the abort-compression threshold, whether to emit an
// integrity table, the XML NAME/DESCRIPTION of a captured or appended
// image, pathname exclusions, and the platform capability used to
// capture/restore file-system metadata.
type Config struct {
	Compression codec.Kind
	Threads     int
	Threshold   *chunkio.Threshold
	Check       bool
	Name        string
	Description string
	Exclusions  *glob.ExclusionSet
	Capability  platform.Capability
}

// Option configures a Config, per spec.md §9's "Functional options"
// ambient-stack addition (C10), in the teacher's internal/options
// generic Option[T]/Func[T] shape specialized to *Config.
type Option = options.Option[*Config]

func defaultConfig() *Config {
	return &Config{
		Compression: codec.KindXpress,
		Threads:     codec.DefaultWorkers,
		Capability:  platform.Noop(),
	}
}

func newConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// WithCompression sets the codec used for newly written resources.
func WithCompression(kind codec.Kind) Option {
	return options.NoError[*Config](func(c *Config) { c.Compression = kind })
}

// WithThreads sets the codec pool's worker count.
func WithThreads(n int) Option {
	return options.NoError[*Config](func(c *Config) { c.Threads = n })
}

// WithThreshold configures the abort-compression heuristic of spec.md
// §4.4 step 4.
func WithThreshold(sizeChunks, n int, ratio float64) Option {
	return options.NoError[*Config](func(c *Config) {
		c.Threshold = &chunkio.Threshold{SizeChunks: sizeChunks, N: n, Ratio: ratio}
	})
}

// WithCheck requests that the operation emit/refresh the integrity
// table (spec.md §6's --check flag).
func WithCheck(check bool) Option {
	return options.NoError[*Config](func(c *Config) { c.Check = check })
}

// WithName sets the XML NAME of the image being captured/appended.
func WithName(name string) Option {
	return options.NoError[*Config](func(c *Config) { c.Name = name })
}

// WithDescription sets the XML DESCRIPTION of the image being
// captured/appended.
func WithDescription(desc string) Option {
	return options.NoError[*Config](func(c *Config) { c.Description = desc })
}

// WithExclusions sets the pathname exclusion set applied during capture.
func WithExclusions(set *glob.ExclusionSet) Option {
	return options.NoError[*Config](func(c *Config) { c.Exclusions = set })
}

// WithCapability overrides the platform capability used to capture and
// restore security descriptors, reparse points, ADS, and hard links.
func WithCapability(capability platform.Capability) Option {
	return options.NoError[*Config](func(c *Config) { c.Capability = capability })
}
