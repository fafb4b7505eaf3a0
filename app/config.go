// SPDX-License-Identifier: Unlicense OR MIT

package app

import "github.com/david7a68/plinth/gpu"

// maxTitleLen bounds window titles in bytes. Longer titles are
// truncated.
const maxTitleLen = 255

// Config describes a window to create. Use Options to build one.
type Config struct {
	Title     string
	Size      gpu.Extent
	MinSize   gpu.Extent
	MaxSize   gpu.Extent
	Resizable bool
	Visible   bool
}

// Option alters a window Config.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Title:     "plinth",
		Size:      gpu.Extent{Width: 800, Height: 600},
		Resizable: true,
		Visible:   true,
	}
}

func buildConfig(opts []Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Title) > maxTitleLen {
		cfg.Title = cfg.Title[:maxTitleLen]
	}
	return cfg
}

// Title sets the window title.
func Title(t string) Option {
	return func(c *Config) {
		c.Title = t
	}
}

// Size sets the initial client area size.
func Size(w, h uint16) Option {
	return func(c *Config) {
		c.Size = gpu.Extent{Width: w, Height: h}
	}
}

// MinSize constrains how small the window can get.
func MinSize(w, h uint16) Option {
	return func(c *Config) {
		c.MinSize = gpu.Extent{Width: w, Height: h}
	}
}

// MaxSize constrains how large the window can get.
func MaxSize(w, h uint16) Option {
	return func(c *Config) {
		c.MaxSize = gpu.Extent{Width: w, Height: h}
	}
}

// Resizable controls whether the user can resize the window.
func Resizable(r bool) Option {
	return func(c *Config) {
		c.Resizable = r
	}
}

// Visible controls whether the window is shown on creation.
func Visible(v bool) Option {
	return func(c *Config) {
		c.Visible = v
	}
}
