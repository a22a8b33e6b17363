package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/sarchlab/mmucache/mem/replacement"
	"github.com/sarchlab/mmucache/mem/vm/mmucache"
)

const envPrefix = "MMUCACHE_"

// config holds the parameters of the emulated MMU cache. Values come from
// the defaults, then the .env file, then the environment, then the flags.
type config struct {
	VAddrBits       uint64
	IndexBits       uint64
	NumLevels       int
	NumEntries      int
	TagShift        uint64
	TableAddrBits   uint64
	Log2PageSize    uint64
	MaxAllocRetries int
	Seed            uint64
	HasSeed         bool
	Policy          string
}

func defaultConfig() config {
	return config{
		VAddrBits:       48,
		IndexBits:       9,
		NumLevels:       3,
		NumEntries:      12,
		TagShift:        3,
		TableAddrBits:   30,
		Log2PageSize:    12,
		MaxAllocRetries: 1024,
		Policy:          "plru",
	}
}

// readEnvFile reads the key-value pairs of a .env file. A missing file is not
// an error.
func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return values, nil
}

// loadEnv applies the MMUCACHE_* values. Values in the process environment
// take precedence over the ones in the file.
func (c *config) loadEnv(file map[string]string) error {
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			return v, true
		}

		v, ok := file[envPrefix+key]

		return v, ok
	}

	uints := map[string]*uint64{
		"VADDR_BITS":      &c.VAddrBits,
		"INDEX_BITS":      &c.IndexBits,
		"TAG_SHIFT":       &c.TagShift,
		"TABLE_ADDR_BITS": &c.TableAddrBits,
		"LOG2_PAGE_SIZE":  &c.Log2PageSize,
	}
	for key, dst := range uints {
		if v, ok := lookup(key); ok {
			n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}

			*dst = n
		}
	}

	ints := map[string]*int{
		"NUM_LEVELS":        &c.NumLevels,
		"NUM_ENTRIES":       &c.NumEntries,
		"MAX_ALLOC_RETRIES": &c.MaxAllocRetries,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}

			*dst = n
		}
	}

	if v, ok := lookup("SEED"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", envPrefix, err)
		}

		c.Seed = n
		c.HasSeed = true
	}

	if v, ok := lookup("POLICY"); ok {
		c.Policy = strings.ToLower(strings.TrimSpace(v))
	}

	return nil
}

func addConfigFlags(flags *pflag.FlagSet) {
	d := defaultConfig()

	flags.String("env", ".env", "file to read MMUCACHE_* settings from")
	flags.Uint64("vaddr-bits", d.VAddrBits, "virtual address bits translated")
	flags.Uint64("index-bits", d.IndexBits, "virtual address bits per level")
	flags.Int("num-levels", d.NumLevels, "page-table levels walked per address")
	flags.Int("num-entries", d.NumEntries, "entries in the MMU cache")
	flags.Uint64("tag-shift", d.TagShift, "shift applied to the index in tags")
	flags.Uint64("table-addr-bits", d.TableAddrBits,
		"width of the synthetic page-table addresses")
	flags.Uint64("log2-page-size", d.Log2PageSize,
		"alignment of the synthetic page-table addresses")
	flags.Int("max-alloc-retries", d.MaxAllocRetries,
		"attempts to find a free page-table address")
	flags.Uint64("seed", 0, "seed of the page-table address generator")
	flags.String("policy", d.Policy, "replacement policy, plru or lru")
}

// loadConfig builds the configuration from the defaults, the env file, the
// environment, and the flags that are explicitly set.
func loadConfig(flags *pflag.FlagSet) (config, error) {
	c := defaultConfig()

	envPath, _ := flags.GetString("env")
	file, err := readEnvFile(envPath)
	if err != nil {
		return c, err
	}

	if err := c.loadEnv(file); err != nil {
		return c, err
	}

	setUint := func(name string, dst *uint64) {
		if flags.Changed(name) {
			*dst, _ = flags.GetUint64(name)
		}
	}
	setInt := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	setUint("vaddr-bits", &c.VAddrBits)
	setUint("index-bits", &c.IndexBits)
	setInt("num-levels", &c.NumLevels)
	setInt("num-entries", &c.NumEntries)
	setUint("tag-shift", &c.TagShift)
	setUint("table-addr-bits", &c.TableAddrBits)
	setUint("log2-page-size", &c.Log2PageSize)
	setInt("max-alloc-retries", &c.MaxAllocRetries)

	if flags.Changed("seed") {
		c.Seed, _ = flags.GetUint64("seed")
		c.HasSeed = true
	}

	if flags.Changed("policy") {
		policy, _ := flags.GetString("policy")
		c.Policy = strings.ToLower(policy)
	}

	return c, nil
}

func (c config) builder() (mmucache.Builder, error) {
	b := mmucache.MakeBuilder().
		WithVAddrBits(c.VAddrBits).
		WithIndexBits(c.IndexBits).
		WithNumLevels(c.NumLevels).
		WithNumEntries(c.NumEntries).
		WithTagShift(c.TagShift).
		WithTableAddrBits(c.TableAddrBits).
		WithLog2PageSize(c.Log2PageSize).
		WithMaxAllocRetries(c.MaxAllocRetries)

	if c.HasSeed {
		b = b.WithSeed(c.Seed)
	}

	if c.NumEntries <= 0 {
		return b, fmt.Errorf("number of entries must be positive, got %d",
			c.NumEntries)
	}

	switch c.Policy {
	case "plru":
		b = b.WithVictimFinder(replacement.NewTreePLRU(1, c.NumEntries))
	case "lru":
		b = b.WithVictimFinder(replacement.NewLRU(1, c.NumEntries))
	default:
		return b, fmt.Errorf("unknown replacement policy %q", c.Policy)
	}

	if err := b.Validate(); err != nil {
		return b, err
	}

	return b, nil
}
