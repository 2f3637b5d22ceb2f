package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all photobooth configuration, shared by the delivery
// service and the booth client.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Mail   MailConfig   `yaml:"mail"`
	Booth  BoothConfig  `yaml:"booth"`
	Render RenderConfig `yaml:"render"`
}

// ServerConfig configures the delivery service.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	UploadDir string `yaml:"upload_dir"`
	FramesDir string `yaml:"frames_dir"`
}

// MailConfig configures the SMTP transport.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// BoothConfig configures the booth client.
type BoothConfig struct {
	ServerURL string `yaml:"server_url"`
	Device    string `yaml:"device"`
	StillsDir string `yaml:"stills_dir"`
}

// RenderConfig configures the composite renderer output canvas.
type RenderConfig struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Quality int `yaml:"quality"`
}

// Default returns the configuration used when no file and no env
// overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      5000,
			UploadDir: "uploads",
			FramesDir: filepath.Join(ProjectRoot(), "assets", "frames"),
		},
		Mail: MailConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Booth: BoothConfig{
			ServerURL: "http://localhost:5000",
		},
		Render: RenderConfig{
			Width:   750,
			Height:  1200,
			Quality: 90,
		},
	}
}

// Load reads the config file at path (if it exists) on top of the
// defaults, then applies environment overrides. A missing file is not
// an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Server.UploadDir = v
	}
	if v := os.Getenv("FRAMES_DIR"); v != "" {
		c.Server.FramesDir = v
	}
	if v := os.Getenv("MAIL_HOST"); v != "" {
		c.Mail.Host = v
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Mail.Port = p
		}
	}
	if v := os.Getenv("MAIL_USER"); v != "" {
		c.Mail.Username = v
	}
	if v := os.Getenv("MAIL_PASS"); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv("BOOTH_SERVER"); v != "" {
		c.Booth.ServerURL = v
	}
}

// ProjectRoot returns the nearest ancestor of the working directory
// containing a go.mod, or "." when none is found. Used only for dev
// defaults; deployments set explicit paths.
func ProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "."
}
