package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDataPath           = "data-path"
	ConfigIndexFile          = "index-file"
	ConfigSolutionsFile      = "solutions-file"
	ConfigThreads            = "threads"
	ConfigDebug              = "debug"
	ConfigMaxLine            = "max-line"
	ConfigTotalDepth         = "total-depth"
	ConfigCheckpointEvery    = "checkpoint-every"
	ConfigMemoSizePower      = "memo-size-power"
	ConfigTableCacheFraction = "table-cache-fraction"
	ConfigPlanFile           = "plan-file"
	ConfigCPUProfile         = "cpu-profile"
)

type Config struct {
	viper.Viper
}

// Load reads flags from args, then PCSOLVE_ environment variables. Flags
// win. It returns the positional arguments left over.
func (c *Config) Load(args []string) ([]string, error) {
	c.Viper = *viper.New()

	fs := pflag.NewFlagSet("pcsolve", pflag.ContinueOnError)
	fs.String(ConfigDataPath, "./data", "directory holding index, solution and table files")
	fs.String(ConfigIndexFile, "index.bin", "placement candidate index, relative to the data path")
	fs.String(ConfigSolutionsFile, "solutions.bin", "candidate id solutions, relative to the data path")
	fs.Int(ConfigThreads, runtime.NumCPU(), "worker goroutines")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.Int(ConfigMaxLine, 4, "rows a perfect clear must clear")
	fs.Int(ConfigTotalDepth, 10, "pieces in one perfect clear")
	fs.Int(ConfigCheckpointEvery, 2000, "results between result log checkpoints")
	fs.Int(ConfigMemoSizePower, 22, "log2 of the slots in each search memo")
	fs.Float64(ConfigTableCacheFraction, 0.25, "fraction of system memory for cached tables")
	fs.String(ConfigPlanFile, "", "YAML file describing the phase to run")
	fs.String(ConfigCPUProfile, "", "write a CPU profile here")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c.SetEnvPrefix("pcsolve")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	if err := c.BindPFlags(fs); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

// AdjustRelativePaths resolves the data path against basepath when it is
// not absolute.
func (c *Config) AdjustRelativePaths(basepath string) {
	p := c.GetString(ConfigDataPath)
	if !filepath.IsAbs(p) {
		c.Set(ConfigDataPath, filepath.Join(basepath, p))
	}
}

// DataFile resolves a file name from the config against the data path.
func (c *Config) DataFile(key string) string {
	p := c.GetString(key)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.GetString(ConfigDataPath), p)
}

func (c *Config) Validate() error {
	if c.GetInt(ConfigThreads) < 1 {
		return fmt.Errorf("%s must be positive", ConfigThreads)
	}
	if l := c.GetInt(ConfigMaxLine); l < 1 || l > 6 {
		return fmt.Errorf("%s %d out of range [1,6]", ConfigMaxLine, l)
	}
	if d := c.GetInt(ConfigTotalDepth); d < 1 || d > 16 {
		return fmt.Errorf("%s %d out of range [1,16]", ConfigTotalDepth, d)
	}
	if f := c.GetFloat64(ConfigTableCacheFraction); f < 0 || f > 1 {
		return fmt.Errorf("%s %v out of range [0,1]", ConfigTableCacheFraction, f)
	}
	return nil
}

func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
