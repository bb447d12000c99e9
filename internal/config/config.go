package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/nihei9/oxi/internal/logutil"
	"github.com/pingcap/errors"
)

// DefaultFileName is the project file the commands look for in the working directory when --config is not
// given.
const DefaultFileName = "oxi.toml"

// Config is the content of a project file.
//
//	[log]
//	level = "info"
//
//	[output]
//	dir = "build"
//
//	[generate]
//	package = "calc"
type Config struct {
	Log      Log      `toml:"log"`
	Output   Output   `toml:"output"`
	Generate Generate `toml:"generate"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Output is the destination of compiled grammars and reports.
type Output struct {
	Dir string `toml:"dir"`
}

type Generate struct {
	Package string `toml:"package"`
}

var defaultConf = Config{
	Log: Log{
		Level:  logutil.DefaultLogLevel,
		Format: logutil.DefaultLogFormat,
	},
	Generate: Generate{
		Package: "main",
	},
}

// NewConfig creates a new config instance with default value.
func NewConfig() *Config {
	conf := defaultConf
	return &conf
}

// Load loads config options from a toml file. Keys the file sets override the current values, and an
// unknown key is an error.
func (c *Config) Load(confFile string) error {
	meta, err := toml.DecodeFile(confFile, c)
	if err != nil {
		return errors.Annotatef(err, "cannot load the config file %s", confFile)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return errors.Errorf("unknown keys in config file %s: %v", confFile, undecoded)
	}
	return nil
}

// ToLogConfig converts *Log to *logutil.LogConfig.
func (l *Log) ToLogConfig() *logutil.LogConfig {
	return logutil.NewLogConfig(l.Level, l.Format)
}

// LoadProjectFile loads the project file at path on top of the defaults. When path is empty, DefaultFileName in
// the working directory is loaded only if it exists.
func LoadProjectFile(path string) (*Config, error) {
	conf := NewConfig()
	if path == "" {
		_, err := os.Stat(DefaultFileName)
		if os.IsNotExist(err) {
			return conf, nil
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		path = DefaultFileName
	}
	err := conf.Load(path)
	if err != nil {
		return nil, err
	}
	return conf, nil
}
