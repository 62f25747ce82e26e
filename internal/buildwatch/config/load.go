package config

import (
	"bytes"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// Load reads and validates the configuration file at path.
// It returns ErrConfigNotFound, ErrConfigMalformed or ErrInvalidConfig
// wrapped with detail; no side effects beyond reading the file.
func Load(path string) (*Config, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	defer buf.Reset()

	//nolint:gosec // G304: config path is chosen by the operator
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrConfigNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer func() { _ = f.Close() }()

	if _, err := buf.ReadFrom(f); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(buf.Bytes(), &cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigMalformed, "%s: %v", path, err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize lower-cases the extension set and guarantees non-nil maps so the
// rest of the program can index without nil checks.
func (c *Config) normalize() {
	for i, ext := range c.AutoTrigger.FileExtensions {
		c.AutoTrigger.FileExtensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}
	if c.BuildTargets == nil {
		c.BuildTargets = map[string]Target{}
	}
}

func (c *Config) validate() error {
	if len(c.BuildTargets) == 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "buildTargets must define at least one target")
	}
	if _, ok := c.BuildTargets[c.AutoTrigger.BuildTarget]; !ok {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"autoTrigger.buildTarget %q is not defined under buildTargets", c.AutoTrigger.BuildTarget)
	}
	if c.AutoTrigger.BuildCooldown <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"autoTrigger.buildCooldown must be a positive number of seconds, got %d", c.AutoTrigger.BuildCooldown)
	}
	for _, pattern := range c.AutoTrigger.WatchPaths {
		if strings.TrimSpace(pattern) == "" {
			return errors.Wrap(errors.ErrInvalidConfig, "autoTrigger.watchPaths contains an empty pattern")
		}
	}
	for _, pattern := range c.AutoTrigger.IgnorePaths {
		if strings.TrimSpace(pattern) == "" {
			return errors.Wrap(errors.ErrInvalidConfig, "autoTrigger.ignorePaths contains an empty pattern")
		}
	}
	for _, ext := range c.AutoTrigger.FileExtensions {
		if !strings.HasPrefix(ext, ".") {
			return errors.Wrapf(errors.ErrInvalidConfig,
				"autoTrigger.fileExtensions entries must start with a dot, got %q", ext)
		}
	}
	for name, target := range c.BuildTargets {
		if strings.TrimSpace(target.Command) == "" {
			return errors.Wrapf(errors.ErrInvalidConfig, "buildTargets.%s.command is empty", name)
		}
	}
	return nil
}
