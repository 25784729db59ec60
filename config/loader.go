package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/wskit/logger"
)

// FileSystem is the slice of the OS the loader touches. Tests swap it out.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (osFS) LoadEnv(path string) error { return godotenv.Load(path) }

// Sources names the files a load will read. Empty means none was found.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

// LoaderConfig collects the LoaderOption values for one LoadConfig call.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	EnvPrefix  string
}

// LoaderOption tunes LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile pins the YAML file instead of searching for one.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile pins the .env file instead of searching for one.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix limits overrides to PREFIX_* variables. The prefix is
// upper-cased and a trailing underscore is dropped.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) {
		lc.EnvPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_"))
	}
}

// Locate picks the files for program name. Pinned paths are returned as is.
func Locate(name string, lc LoaderConfig) Sources {
	fs := lc.FileSystem
	if fs == nil {
		fs = osFS{}
	}
	src := Sources{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if src.ConfigFile == "" {
		src.ConfigFile = firstExisting(fs, configCandidates(name))
	}
	if src.EnvFile == "" {
		src.EnvFile = firstExisting(fs, []string{
			"./cmd/" + name + "/.env",
			"./.env." + name,
			"./.env",
		})
	}
	return src
}

func configCandidates(name string) []string {
	c := []string{
		"./cmd/" + name + "/config.yml",
		"./" + name + ".yml",
		"./config/config.yml",
		"./config.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		c = append(c, filepath.Join(home, ".config", name, "config.yml"))
	}
	return c
}

func firstExisting(fs FileSystem, paths []string) string {
	i := slices.IndexFunc(paths, fs.Exists)
	if i < 0 {
		return ""
	}
	return paths[i]
}

// LoadConfig fills cfg for program name. Layers, lowest first: the YAML
// file, then the environment (after the .env file has been merged into it).
// Missing files are not an error.
func LoadConfig(name string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: osFS{}}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = osFS{}
	}
	src := Locate(name, lc)
	log := logger.WithComponent("config")

	v := viper.New()
	if src.ConfigFile != "" && lc.FileSystem.Exists(src.ConfigFile) {
		v.SetConfigFile(src.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			log.WithError(err).Warn("config file ignored", logger.Fields("file", src.ConfigFile))
		} else {
			log.Debug("config file loaded", logger.Fields("file", src.ConfigFile))
		}
	}
	if src.EnvFile != "" && lc.FileSystem.Exists(src.EnvFile) {
		if err := lc.FileSystem.LoadEnv(src.EnvFile); err != nil {
			log.WithError(err).Warn("env file ignored", logger.Fields("file", src.EnvFile))
		}
	}

	overlayEnv(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config %s: %w", name, err)
	}
	return nil
}

// overlayEnv sets every spelling of each KEY=value pair on v. With a prefix
// only PREFIX_KEY entries count and the prefix is removed first.
func overlayEnv(v *viper.Viper, prefix string, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			var found bool
			if key, found = strings.CutPrefix(key, prefix+"_"); !found {
				continue
			}
		}
		for _, path := range envKeyPaths(key) {
			v.Set(path, value)
		}
	}
}

// envKeyPaths lists the viper keys an env name could mean, since an
// underscore may separate sections or sit inside a field name.
//
//	HTTP_MAX_CONCURRENT -> http_max_concurrent, http.max.concurrent, http.max_concurrent
func envKeyPaths(envKey string) []string {
	parts := strings.Split(strings.ToLower(envKey), "_")
	paths := []string{strings.Join(parts, "_")}
	if len(parts) == 1 {
		return paths
	}
	paths = append(paths, strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		paths = append(paths, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}
