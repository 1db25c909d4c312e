package hashstat

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/sidney/mira4-assembler-patches-sub001/vhash"
)

// BloomMode selects the construction path. The approximate modes trade count
// accuracy and time for memory:
//
//   - BloomOff counts exactly with the partitioned disk builder.
//   - BloomOnePass makes a single pass and starts counting a key at its second
//     sighting, so every count is one short and keys seen exactly twice are
//     dropped as singletons.
//   - BloomTwoPass counts exactly every key seen at least twice; the result
//     matches the exact build when singletons are not retained.
//   - BloomThreePass is two pass counting with an extra count-only pass that
//     discards Bloom false positives before any full record is allocated.
type BloomMode uint8

const (
	BloomOff BloomMode = iota
	BloomOnePass
	BloomTwoPass
	BloomThreePass
)

var bloomModeNames = []string{"off", "1-pass", "2-pass", "3-pass"}

func (m BloomMode) String() string {
	if int(m) < len(bloomModeNames) {
		return bloomModeNames[m]
	}
	return fmt.Sprintf("bloommode(%d)", uint8(m))
}

// ParseBloomMode accepts the String form with or without the "-pass" suffix.
func ParseBloomMode(s string) (BloomMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range bloomModeNames {
		if s == name || s == strings.TrimSuffix(name, "-pass") {
			return BloomMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown bloom mode %q", ErrBadConfig, s)
}

func (m BloomMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *BloomMode) UnmarshalText(b []byte) error {
	v, err := ParseBloomMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Config holds every tunable of a build and the passes that consume the index.
type Config struct {
	K                     int    `toml:"k"`
	AlsoReverseComplement bool   `toml:"also_reverse_complement"`
	OrientationMinCount   uint32 `toml:"orientation_threshold_min_count"`

	// BufferBudgetHint is the number of records per bucket buffer before a
	// spill. 0 sizes buffers from MemoryBudget.
	BufferBudgetHint int `toml:"buffer_budget_hint"`
	// MemoryBudget in bytes. 0 uses three quarters of available memory.
	MemoryBudget      uint64 `toml:"memory_budget"`
	BucketPrefixBases int    `toml:"bucket_prefix_bases"`
	RetainSingletons  bool   `toml:"retain_singletons"`
	CompressSpill     bool   `toml:"compress_spill"`
	TempDir           string `toml:"temp_dir"`

	TrimPercent       float64 `toml:"trim_percent_for_estimator"`
	MinNormalRatio    float64 `toml:"min_normal_ratio"`
	RepeatRatio       float64 `toml:"repeat_ratio"`
	HeavyRepeatRatio  float64 `toml:"heavy_repeat_ratio"`
	CrazyRepeatRatio  float64 `toml:"crazy_repeat_ratio"`
	MaskRatio         float64 `toml:"mask_ratio"`
	MaskAbsoluteFloor uint32  `toml:"mask_absolute_floor"`

	LowPositionCutoff uint16 `toml:"low_position_cutoff"`
	DetectBranches    bool   `toml:"detect_branches"`
	BranchMinCount    uint32 `toml:"branch_min_count"`

	DigitalNormCap   uint32 `toml:"digital_norm_cap"`
	BaitHitThreshold int    `toml:"bait_hit_threshold"`

	BloomMode       BloomMode `toml:"bloom_mode"`
	BloomBitsPerKey uint64    `toml:"bloom_bits_per_key"`
	BloomHashes     uint8     `toml:"bloom_hashes"`

	Threads   int `toml:"thread_count"`
	ChunkSize int `toml:"chunk_size"`

	SkipInvalidReads bool `toml:"skip_invalid_reads"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		K:                     vhash.DefaultK,
		AlsoReverseComplement: true,
		OrientationMinCount:   1,
		BucketPrefixBases:     4,
		TrimPercent:           5,
		MinNormalRatio:        0.4,
		RepeatRatio:           1.6,
		HeavyRepeatRatio:      8,
		CrazyRepeatRatio:      20,
		MaskRatio:             100,
		LowPositionCutoff:     4,
		BranchMinCount:        3,
		DigitalNormCap:        10,
		BaitHitThreshold:      10,
		BloomBitsPerKey:       10,
		BloomHashes:           7,
		Threads:               runtime.NumCPU(),
		ChunkSize:             256,
	}
}

// maxTrimPercent bounds the estimator's widening.
const maxTrimPercent = 45

// Validate reports the first out of range setting as ErrBadConfig.
func (c *Config) Validate() error {
	if c.K < 1 || c.K > vhash.MaxK {
		return fmt.Errorf("%w: k=%d, want 1..%d", ErrBadConfig, c.K, vhash.MaxK)
	}
	if c.OrientationMinCount == 0 {
		return fmt.Errorf("%w: orientation threshold must be at least 1", ErrBadConfig)
	}
	if c.BufferBudgetHint < 0 {
		return fmt.Errorf("%w: negative buffer budget", ErrBadConfig)
	}
	if c.BucketPrefixBases < 1 || c.BucketPrefixBases > 8 {
		return fmt.Errorf("%w: bucket prefix bases=%d, want 1..8", ErrBadConfig, c.BucketPrefixBases)
	}
	if c.TrimPercent < 0 || c.TrimPercent > maxTrimPercent {
		return fmt.Errorf("%w: trim percent %g, want 0..%d", ErrBadConfig, c.TrimPercent, maxTrimPercent)
	}
	ratios := []float64{c.MinNormalRatio, c.RepeatRatio, c.HeavyRepeatRatio, c.CrazyRepeatRatio, c.MaskRatio}
	for i, r := range ratios {
		if r <= 0 {
			return fmt.Errorf("%w: frequency ratios must be positive", ErrBadConfig)
		}
		if i > 0 && r < ratios[i-1] {
			return fmt.Errorf("%w: frequency ratios must not decrease", ErrBadConfig)
		}
	}
	if c.BloomMode > BloomThreePass {
		return fmt.Errorf("%w: %v", ErrBadConfig, c.BloomMode)
	}
	if c.BloomMode != BloomOff {
		if c.RetainSingletons {
			return fmt.Errorf("%w: bloom builds cannot retain singletons", ErrBadConfig)
		}
		if c.BloomBitsPerKey == 0 || c.BloomHashes == 0 {
			return fmt.Errorf("%w: bloom sizing must be positive", ErrBadConfig)
		}
	}
	if c.Threads < 1 {
		return fmt.Errorf("%w: thread count %d", ErrBadConfig, c.Threads)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size %d", ErrBadConfig, c.ChunkSize)
	}
	if c.BaitHitThreshold < 1 {
		return fmt.Errorf("%w: bait hit threshold %d", ErrBadConfig, c.BaitHitThreshold)
	}
	return nil
}

// LoadConfigFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadConfig, path, err)
	}
	return cfg.Validate()
}

// Option is a generic option type. Implementations type assert to the options
// target they understand and ignore the rest.
type Option func(any)

// WithK sets the window length.
func WithK(k int) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			c.K = k
		}
	}
}

// WithReverseComplement enables hashing of both orientations.
func WithReverseComplement(on bool) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			c.AlsoReverseComplement = on
		}
	}
}

// WithRetainSingletons keeps keys seen once in the finished index.
func WithRetainSingletons(on bool) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			c.RetainSingletons = on
		}
	}
}

// WithBloomMode selects the bloom prefiltered constructor.
func WithBloomMode(m BloomMode) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			c.BloomMode = m
		}
	}
}

// WithThreads sets the worker count.
func WithThreads(n int) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			c.Threads = n
		}
	}
}

// WithBufferBudget overrides the computed per bucket buffer capacity.
func WithBufferBudget(n int) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			c.BufferBudgetHint = n
		}
	}
}

// WithTempDir sets where the scratch directory is created.
func WithTempDir(dir string) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			c.TempDir = dir
		}
	}
}

// WithCompressedSpill writes spill files as zstd frames.
func WithCompressedSpill(on bool) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			c.CompressSpill = on
		}
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(opts any) {
		if c, ok := opts.(*Config); ok {
			*c = cfg
		}
	}
}
