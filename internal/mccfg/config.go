/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package mccfg loads and validates the frozen configuration record consumed
// by the rest of mcservernap (spec.md §3, §6): the admin poll/idle timers and
// the two synthetic-response text/color/bold fields, plus an optional
// 64x64 server icon.
package mccfg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"github.com/spf13/viper"

	validator "github.com/go-playground/validator/v10"
)

// Config is the frozen record described in spec.md §3. It is built once at
// startup and shared read-only with every task. MotdColor and
// ConnectionMsgColor are restricted to the Minecraft chat-color enum.
type Config struct {
	RconPollInterval   uint   `mapstructure:"rcon_poll_interval" toml:"rcon_poll_interval" validate:"gt=0"`
	RconIdleTimeout    uint   `mapstructure:"rcon_idle_timeout" toml:"rcon_idle_timeout" validate:"gt=0"`
	MotdText           string `mapstructure:"motd_text" toml:"motd_text" validate:"required"`
	MotdColor          string `mapstructure:"motd_color" toml:"motd_color" validate:"required,oneof=black dark_blue dark_green dark_aqua dark_red dark_purple gold gray dark_gray blue green aqua red light_purple yellow white reset"`
	MotdBold           bool   `mapstructure:"motd_bold" toml:"motd_bold"`
	ConnectionMsgText  string `mapstructure:"connection_msg_text" toml:"connection_msg_text" validate:"required"`
	ConnectionMsgColor string `mapstructure:"connection_msg_color" toml:"connection_msg_color" validate:"required,oneof=black dark_blue dark_green dark_aqua dark_red dark_purple gold gray dark_gray blue green aqua red light_purple yellow white reset"`
	ConnectionMsgBold  bool   `mapstructure:"connection_msg_bold" toml:"connection_msg_bold"`

	// ServerIconBase64 is populated by loadIcon, never read from the TOML file
	// directly.
	ServerIconBase64 string `mapstructure:"-" toml:"-"`
}

// Defaults returns the spec-mandated default configuration (spec.md §6).
func Defaults() Config {
	return Config{
		RconPollInterval:   60,
		RconIdleTimeout:    600,
		MotdText:           "Napping... Join to start server",
		MotdColor:          "aqua",
		MotdBold:           true,
		ConnectionMsgText:  "Server is now starting up. Please wait and try again shortly...",
		ConnectionMsgColor: "light_purple",
		ConnectionMsgBold:  true,
	}
}

// ConfigDir and ConfigFile are the fixed locations spec.md §6 mandates:
// "<cwd>/config/cfg.toml".
const (
	ConfigDir  = "config"
	ConfigFile = "config/cfg.toml"
	IconFile   = "config/server-icon.png"
)

// Load reads ConfigFile relative to the current working directory. A missing
// file is not an error: defaults are returned and, best-effort, a default
// file is written back so operators have something to edit (supplemented
// from original_source/src/config.rs, which does the same). Extra keys in
// the file are ignored by viper; missing keys keep their default values.
func Load(log logger) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v, cfg)

	if _, err := os.Stat(ConfigFile); err != nil {
		if os.IsNotExist(err) {
			log.Infof("no configuration file found at %s, using defaults", ConfigFile)
			if werr := writeDefault(cfg); werr != nil {
				log.Warnf("could not write default configuration file: %v", werr)
			}
			return finish(cfg, log)
		}
		return cfg, fmt.Errorf("mccfg: stat %s: %w", ConfigFile, err)
	}

	v.SetConfigFile(ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("mccfg: read %s: %w", ConfigFile, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("mccfg: unmarshal %s: %w", ConfigFile, err)
	}

	return finish(cfg, log)
}

func finish(cfg Config, log logger) (Config, error) {
	icon, err := loadIcon()
	if err != nil {
		log.Warnf("could not load %s: %v", IconFile, err)
	} else {
		cfg.ServerIconBase64 = icon
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("mccfg: invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("rcon_poll_interval", cfg.RconPollInterval)
	v.SetDefault("rcon_idle_timeout", cfg.RconIdleTimeout)
	v.SetDefault("motd_text", cfg.MotdText)
	v.SetDefault("motd_color", cfg.MotdColor)
	v.SetDefault("motd_bold", cfg.MotdBold)
	v.SetDefault("connection_msg_text", cfg.ConnectionMsgText)
	v.SetDefault("connection_msg_color", cfg.ConnectionMsgColor)
	v.SetDefault("connection_msg_bold", cfg.ConnectionMsgBold)
}

func writeDefault(cfg Config) error {
	if err := os.MkdirAll(ConfigDir, 0o755); err != nil {
		return err
	}

	b, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Clean(ConfigFile), b, 0o644)
}

// logger is the minimal logging surface mccfg needs, satisfied by
// *logrus.Logger and *logrus.Entry alike.
type logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}
