// Package config reads ~/.boardrrc, a file of key = value lines.
package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"boardr/internal/board"
	"boardr/internal/gesture"
	"boardr/internal/geom"
)

const FileName = ".boardrrc"

type Config struct {
	SaveDirectory string
	Store         string
	RedisAddr     string
	AIEndpoint    string
	AIToken       string
	MinScale      float64
	MaxScale      float64
	MinItemSize   float64
	LogLevel      string
	LogFile       string
	StartMenu     bool
	Confirmations bool
}

func Default() *Config {
	return &Config{
		Store:         "file",
		MinScale:      geom.DefaultMinScale,
		MaxScale:      geom.DefaultMaxScale,
		MinItemSize:   board.MinItemSize,
		LogLevel:      "info",
		StartMenu:     true,
		Confirmations: true,
	}
}

// Load reads the rc file from the home directory. A missing or unreadable
// file yields the defaults.
func Load() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		return fromEnv()
	}
	f, err := os.Open(filepath.Join(home, FileName))
	if err != nil {
		return fromEnv()
	}
	defer f.Close()
	return Parse(f, home)
}

// Parse reads rc lines from r. Blank lines and # comments are skipped;
// keys are case-insensitive and accept a few aliases. Values that do not
// parse keep their defaults.
func Parse(r io.Reader, home string) *Config {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "savedirectory", "save_directory", "savedir":
			cfg.SaveDirectory = expandPath(value, home)
		case "store", "backend":
			cfg.Store = strings.ToLower(value)
		case "redisaddr", "redis_addr", "redis":
			cfg.RedisAddr = value
		case "aiendpoint", "ai_endpoint", "ai":
			cfg.AIEndpoint = value
		case "minscale", "min_scale":
			cfg.MinScale = positive(key, value, cfg.MinScale)
		case "maxscale", "max_scale":
			cfg.MaxScale = positive(key, value, cfg.MaxScale)
		case "minitemsize", "min_item_size", "minsize":
			cfg.MinItemSize = positive(key, value, cfg.MinItemSize)
		case "loglevel", "log_level":
			cfg.LogLevel = strings.ToLower(value)
		case "logfile", "log_file":
			cfg.LogFile = expandPath(value, home)
		case "startmenu", "start_menu":
			cfg.StartMenu = strings.ToLower(value) == "true"
		case "confirmations", "confirm":
			cfg.Confirmations = strings.ToLower(value) == "true"
		}
	}
	if cfg.MaxScale < cfg.MinScale {
		log.WithFields(log.Fields{"minscale": cfg.MinScale, "maxscale": cfg.MaxScale}).Warn("scale bounds inverted, using defaults")
		cfg.MinScale, cfg.MaxScale = geom.DefaultMinScale, geom.DefaultMaxScale
	}
	cfg.fillFromEnv()
	return cfg
}

func fromEnv() *Config {
	cfg := Default()
	cfg.fillFromEnv()
	return cfg
}

func (c *Config) fillFromEnv() {
	if v := os.Getenv("BOARDR_AI_TOKEN"); v != "" {
		c.AIToken = v
	}
	if v := os.Getenv("BOARDR_REDIS_ADDR"); v != "" && c.RedisAddr == "" {
		c.RedisAddr = v
	}
}

func positive(key, value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v <= 0 {
		log.WithFields(log.Fields{"key": key, "value": value}).Warn("ignoring invalid config value")
		return fallback
	}
	return v
}

func expandPath(value, home string) string {
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "~") && home != "" {
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	if !filepath.IsAbs(value) {
		if abs, err := filepath.Abs(value); err == nil {
			value = abs
		}
	}
	return value
}

// Dir is the directory projects and logs live in. Without a configured
// save directory it is ~/.boardr.
func (c *Config) Dir() string {
	if c.SaveDirectory != "" {
		return c.SaveDirectory
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".boardr"
	}
	return filepath.Join(home, ".boardr")
}

// GetSavePath places filename in the save directory, creating it if needed.
func (c *Config) GetSavePath(filename string) string {
	if filepath.IsAbs(filename) || c.SaveDirectory == "" {
		return filename
	}
	_ = os.MkdirAll(c.SaveDirectory, 0o755)
	return filepath.Join(c.SaveDirectory, filename)
}

func (c *Config) Gesture() gesture.Config {
	g := gesture.DefaultConfig()
	g.MinScale = c.MinScale
	g.MaxScale = c.MaxScale
	g.MinItemSize = c.MinItemSize
	return g
}
