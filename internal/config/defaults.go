package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Converter.Path == "" {
		cfg.Converter.Path = "./antiword/antiword"
	}
	if cfg.Converter.Args == nil {
		cfg.Converter.Args = []string{"-mUTF-8"}
	}
	if cfg.Converter.Timeout == 0 {
		cfg.Converter.Timeout = 60 * time.Second
	}
	if cfg.Text.SampleBytes == 0 {
		cfg.Text.SampleBytes = 200000
	}
	if cfg.Text.ScaleFactor == 0 {
		cfg.Text.ScaleFactor = 512
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Watch.OutputDir == "" {
		cfg.Watch.OutputDir = "/usr/local/var/docread/text"
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
