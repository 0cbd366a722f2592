// Package config loads space, store and tuning settings from a file and
// CONCEPTSPACE_* environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/hupe1980/conceptspace"
	"github.com/hupe1980/conceptspace/adapt"
	"github.com/hupe1980/conceptspace/blobstore"
	"github.com/hupe1980/conceptspace/blobstore/minio"
	"github.com/hupe1980/conceptspace/blobstore/s3"
	"github.com/hupe1980/conceptspace/cluster"
	"github.com/hupe1980/conceptspace/codec"
	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/distance"
	"github.com/hupe1980/conceptspace/index"
	"github.com/hupe1980/conceptspace/resource"
	"github.com/hupe1980/conceptspace/snapshot"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CONCEPTSPACE_SPACE_DECAY.
const EnvPrefix = "CONCEPTSPACE"

// Config holds all configuration.
type Config struct {
	Space    SpaceConfig     `mapstructure:"space"`
	Index    IndexConfig     `mapstructure:"index"`
	Regions  RegionsConfig   `mapstructure:"regions"`
	Cluster  cluster.Params  `mapstructure:"cluster"`
	Adapt    adapt.Params    `mapstructure:"adapt"`
	Resource resource.Config `mapstructure:"resource"`
	Snapshot SnapshotConfig  `mapstructure:"snapshot"`
	Log      LogConfig       `mapstructure:"log"`
}

type SpaceConfig struct {
	// Order is the Minkowski order: a number >= 1, "manhattan", "euclidean" or "chebyshev".
	Order      string            `mapstructure:"order"`
	Decay      float64           `mapstructure:"decay"`
	Dimensions []DimensionConfig `mapstructure:"dimensions"`
	// Profiles maps a context name to a full weight vector. Names are
	// lowercased by the loader.
	Profiles map[string][]float64 `mapstructure:"profiles"`
}

type DimensionConfig struct {
	Name   string  `mapstructure:"name"`
	Kind   string  `mapstructure:"kind"`
	Min    float64 `mapstructure:"min"`
	Max    float64 `mapstructure:"max"`
	Weight float64 `mapstructure:"weight"`
	Unit   string  `mapstructure:"unit"`
	Levels int     `mapstructure:"levels"`
}

type IndexConfig struct {
	TreeMaxDimensions int  `mapstructure:"tree_max_dimensions"`
	ForceFlat         bool `mapstructure:"force_flat"`
}

type RegionsConfig struct {
	Threshold         float64 `mapstructure:"threshold"`
	HullMaxDimensions int     `mapstructure:"hull_max_dimensions"`
}

type SnapshotConfig struct {
	// Backend is one of "memory", "local", "s3" or "minio".
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	Bucket      string `mapstructure:"bucket"`
	Prefix      string `mapstructure:"prefix"`
	Region      string `mapstructure:"region"`
	Codec       string `mapstructure:"codec"`
	Compression string `mapstructure:"compression"`
	// Keep is the number of snapshots retained per space. Zero keeps all.
	Keep  int          `mapstructure:"keep"`
	Minio minio.Config `mapstructure:"minio"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("space.order", "2")
	v.SetDefault("space.decay", 1.0)
	v.SetDefault("index.tree_max_dimensions", 10)
	v.SetDefault("index.force_flat", false)
	v.SetDefault("regions.threshold", 0.5)
	v.SetDefault("regions.hull_max_dimensions", 3)
	v.SetDefault("cluster.min_density", 3)
	v.SetDefault("cluster.radius", 1.0)
	v.SetDefault("cluster.min_cluster_size", cluster.DefaultMinClusterSize)

	ap := adapt.DefaultParams()
	v.SetDefault("adapt.learning_rate", ap.LearningRate)
	v.SetDefault("adapt.regularization", ap.Regularization)
	v.SetDefault("adapt.prior", ap.Prior)
	v.SetDefault("adapt.epochs", ap.Epochs)

	v.SetDefault("resource.max_workers", 0)
	v.SetDefault("resource.memory_limit_bytes", 0)
	v.SetDefault("resource.io_limit_bytes_per_sec", 0)

	v.SetDefault("snapshot.backend", "memory")
	v.SetDefault("snapshot.path", "")
	v.SetDefault("snapshot.bucket", "")
	v.SetDefault("snapshot.prefix", "")
	v.SetDefault("snapshot.region", "")
	v.SetDefault("snapshot.codec", codec.Default.Name())
	v.SetDefault("snapshot.compression", snapshot.CompressionZSTD.String())
	v.SetDefault("snapshot.keep", 0)
	v.SetDefault("snapshot.minio.endpoint", "")
	v.SetDefault("snapshot.minio.access_key", "")
	v.SetDefault("snapshot.minio.secret_key", "")
	v.SetDefault("snapshot.minio.secure", false)
	v.SetDefault("snapshot.minio.bucket", "")
	v.SetDefault("snapshot.minio.prefix", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the defaults with environment overrides applied.
func Default() (*Config, error) {
	return decode(newViper())
}

// Load reads configuration from path (YAML, JSON or TOML by extension) and
// the environment. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if _, err := distance.ParseOrder(c.Space.Order); err != nil {
		warnings = append(warnings, fmt.Sprintf("space order %q is invalid", c.Space.Order))
	}
	if c.Space.Decay <= 0 || math.IsNaN(c.Space.Decay) {
		warnings = append(warnings, fmt.Sprintf("space decay %g must be positive", c.Space.Decay))
	}
	if len(c.Space.Dimensions) == 0 {
		warnings = append(warnings, "no dimensions configured")
	}
	for name, w := range c.Space.Profiles {
		if len(c.Space.Dimensions) > 0 && len(w) != len(c.Space.Dimensions) {
			warnings = append(warnings, fmt.Sprintf("profile %q has %d weights for %d dimensions", name, len(w), len(c.Space.Dimensions)))
		}
	}
	if c.Regions.Threshold <= 0 || c.Regions.Threshold >= 1 {
		warnings = append(warnings, fmt.Sprintf("membership threshold %.2f is outside (0, 1)", c.Regions.Threshold))
	}
	if c.Cluster.Radius <= 0 {
		warnings = append(warnings, fmt.Sprintf("cluster radius %g must be positive", c.Cluster.Radius))
	}
	if c.Adapt.LearningRate <= 0 {
		warnings = append(warnings, fmt.Sprintf("adapt learning_rate %g must be positive", c.Adapt.LearningRate))
	}
	if _, ok := codec.ByName(c.Snapshot.Codec); !ok {
		warnings = append(warnings, fmt.Sprintf("snapshot codec %q is unknown", c.Snapshot.Codec))
	}
	if _, err := snapshot.ParseCompression(c.Snapshot.Compression); err != nil {
		warnings = append(warnings, fmt.Sprintf("snapshot compression %q is unknown", c.Snapshot.Compression))
	}
	switch c.Snapshot.Backend {
	case "memory":
	case "local":
		if c.Snapshot.Path == "" {
			warnings = append(warnings, "snapshot backend 'local' is configured but path is empty")
		}
	case "s3":
		if c.Snapshot.Bucket == "" {
			warnings = append(warnings, "snapshot backend 's3' is configured but bucket is empty")
		}
	case "minio":
		if c.Snapshot.Minio.Endpoint == "" || c.Snapshot.Bucket == "" {
			warnings = append(warnings, "snapshot backend 'minio' needs minio.endpoint and bucket")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("snapshot backend %q is unknown", c.Snapshot.Backend))
	}
	if c.Snapshot.Keep < 0 {
		warnings = append(warnings, fmt.Sprintf("snapshot keep %d is negative", c.Snapshot.Keep))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		warnings = append(warnings, err.Error())
	}

	return warnings
}

// Dimensions converts the configured dimensions. Levels defaults to max-min+1
// for ordinal dimensions and weight defaults to 1.
func (c *Config) Dimensions() ([]dimension.Dimension, error) {
	dims := make([]dimension.Dimension, len(c.Space.Dimensions))
	for i, dc := range c.Space.Dimensions {
		kind, err := dimension.ParseKind(dc.Kind)
		if err != nil {
			return nil, fmt.Errorf("dimension %q: %w", dc.Name, err)
		}
		d := dimension.Dimension{
			Name:   dc.Name,
			Kind:   kind,
			Min:    dc.Min,
			Max:    dc.Max,
			Weight: dc.Weight,
			Unit:   dc.Unit,
			Levels: dc.Levels,
		}
		if d.Weight == 0 {
			d.Weight = 1
		}
		if kind == dimension.KindOrdinal && d.Levels == 0 {
			d.Levels = int(d.Max-d.Min) + 1
		}
		dims[i] = d
	}
	return dims, nil
}

// Options converts the configuration into space options.
func (c *Config) Options() ([]conceptspace.Option, error) {
	order, err := distance.ParseOrder(c.Space.Order)
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	opts := []conceptspace.Option{
		conceptspace.WithOrder(order),
		conceptspace.WithDecay(c.Space.Decay),
		conceptspace.WithIndexConfig(c.indexConfig()),
		conceptspace.WithThreshold(c.Regions.Threshold),
		conceptspace.WithHullMaxDimensions(c.Regions.HullMaxDimensions),
		conceptspace.WithController(resource.NewController(c.Resource)),
		conceptspace.WithLogger(logger),
	}
	for name, w := range c.Space.Profiles {
		opts = append(opts, conceptspace.WithProfile(name, w))
	}
	return opts, nil
}

// NewSpace creates an empty space from the configured dimensions and options.
func (c *Config) NewSpace(extra ...conceptspace.Option) (*conceptspace.Space, error) {
	dims, err := c.Dimensions()
	if err != nil {
		return nil, err
	}
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return conceptspace.New(dims, append(opts, extra...)...)
}

// Logger builds the configured logger.
func (c *Config) Logger() (*conceptspace.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return conceptspace.NewJSONLogger(level), nil
	case "text", "":
		return conceptspace.NewTextLogger(level), nil
	case "none", "noop":
		return conceptspace.NoopLogger(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q is invalid", s)
	}
	return level, nil
}

// SnapshotOptions converts the snapshot settings. ctrl throttles snapshot IO
// and may be nil.
func (c *Config) SnapshotOptions(ctrl *resource.Controller) ([]func(*snapshot.Options), error) {
	cd, ok := codec.ByName(c.Snapshot.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", snapshot.ErrUnknownCodec, c.Snapshot.Codec)
	}
	comp, err := snapshot.ParseCompression(c.Snapshot.Compression)
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	return []func(*snapshot.Options){func(o *snapshot.Options) {
		o.Codec = cd
		o.Compression = comp
		o.Controller = ctrl
		o.Logger = logger.Logger
	}}, nil
}

// OpenStore opens the configured snapshot backend.
func (c *Config) OpenStore(ctx context.Context) (blobstore.BlobStore, error) {
	sc := c.Snapshot
	switch sc.Backend {
	case "memory", "":
		return blobstore.NewMemoryStore(), nil
	case "local":
		if sc.Path == "" {
			return nil, fmt.Errorf("snapshot backend local: empty path")
		}
		return blobstore.NewLocalStore(sc.Path), nil
	case "s3":
		var opts []s3.Option
		if sc.Prefix != "" {
			opts = append(opts, s3.WithPrefix(sc.Prefix))
		}
		if sc.Region != "" {
			opts = append(opts, s3.WithRegion(sc.Region))
		}
		return s3.New(ctx, sc.Bucket, opts...)
	case "minio":
		mc := sc.Minio
		if mc.Bucket == "" {
			mc.Bucket = sc.Bucket
		}
		if mc.Prefix == "" {
			mc.Prefix = sc.Prefix
		}
		return minio.Dial(ctx, mc)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", sc.Backend)
	}
}

func (c *Config) indexConfig() index.Config {
	return index.Config{
		TreeMaxDimensions: c.Index.TreeMaxDimensions,
		ForceFlat:         c.Index.ForceFlat,
	}
}
