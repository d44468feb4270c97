// Package config decodes relayd's on-disk configuration file using
// go-scfg's directive/block grammar (§4.13), the same library the
// teacher uses for its own config file.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"git.sr.ht/~emersion/go-scfg"
)

// TLS holds a certificate/key pair path for the listener.
type TLS struct {
	Cert string
	Key  string
}

// History holds the per-target retention tuning handed to
// history.NewBuffer.
type History struct {
	Limit  int
	MaxAge time.Duration
}

// RateLimit holds the token-bucket tuning handed to ratelimit.New.
type RateLimit struct {
	Capacity        int
	RefillPerSecond float64
}

// Config is relayd's fully-decoded on-disk configuration.
type Config struct {
	Listen       string
	ServerName   string
	AdminContact string
	AdminName    string
	MOTDFile     string

	TLS       *TLS
	History   History
	RateLimit RateLimit
}

// Default returns the configuration used when no file is given: a plain
// listener on 0.0.0.0:6667, server name "relayd", no TLS, and the same
// history and rate-limit tuning as the sample in §4.13.
func Default() Config {
	return Config{
		Listen:     "0.0.0.0:6667",
		ServerName: "relayd",
		History: History{
			Limit:  1000,
			MaxAge: 30 * 24 * time.Hour,
		},
		RateLimit: RateLimit{
			Capacity:        10,
			RefillPerSecond: 10,
		},
	}
}

// Load reads and decodes the scfg file at path, starting from Default()
// so any directive the file omits keeps its default value.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses r as an scfg document into a Config.
func Decode(r io.Reader) (Config, error) {
	block, err := scfg.Read(r)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	cfg := Default()
	for _, dir := range block {
		if err := applyDirective(&cfg, dir); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func applyDirective(cfg *Config, dir *scfg.Directive) error {
	switch dir.Name {
	case "listen":
		return dir.ParseParams(&cfg.Listen)
	case "server-name":
		return dir.ParseParams(&cfg.ServerName)
	case "admin-contact":
		return dir.ParseParams(&cfg.AdminContact)
	case "admin-name":
		return dir.ParseParams(&cfg.AdminName)
	case "motd-file":
		return dir.ParseParams(&cfg.MOTDFile)
	case "tls":
		return applyTLS(cfg, dir)
	case "history":
		return applyHistory(cfg, dir)
	case "ratelimit":
		return applyRateLimit(cfg, dir)
	default:
		return fmt.Errorf("config: unknown directive %q", dir.Name)
	}
}

func applyTLS(cfg *Config, dir *scfg.Directive) error {
	tls := &TLS{}
	for _, child := range dir.Children {
		switch child.Name {
		case "cert":
			if err := child.ParseParams(&tls.Cert); err != nil {
				return err
			}
		case "key":
			if err := child.ParseParams(&tls.Key); err != nil {
				return err
			}
		default:
			return fmt.Errorf("config: unknown tls directive %q", child.Name)
		}
	}
	cfg.TLS = tls
	return nil
}

func applyHistory(cfg *Config, dir *scfg.Directive) error {
	for _, child := range dir.Children {
		switch child.Name {
		case "limit":
			var s string
			if err := child.ParseParams(&s); err != nil {
				return err
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("config: history limit: %w", err)
			}
			cfg.History.Limit = n
		case "max-age":
			var s string
			if err := child.ParseParams(&s); err != nil {
				return err
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("config: history max-age: %w", err)
			}
			cfg.History.MaxAge = d
		default:
			return fmt.Errorf("config: unknown history directive %q", child.Name)
		}
	}
	return nil
}

func applyRateLimit(cfg *Config, dir *scfg.Directive) error {
	for _, child := range dir.Children {
		switch child.Name {
		case "capacity":
			var s string
			if err := child.ParseParams(&s); err != nil {
				return err
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("config: ratelimit capacity: %w", err)
			}
			cfg.RateLimit.Capacity = n
		case "refill-per-second":
			var s string
			if err := child.ParseParams(&s); err != nil {
				return err
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("config: ratelimit refill-per-second: %w", err)
			}
			cfg.RateLimit.RefillPerSecond = v
		default:
			return fmt.Errorf("config: unknown ratelimit directive %q", child.Name)
		}
	}
	return nil
}
