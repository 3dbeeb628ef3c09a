package config

import "strings"

func Normalize(cfg Config) Config {
	if cfg.Version == 0 {
		cfg.Version = SchemaVersion
	}
	if cfg.Source.Root == "" {
		cfg.Source.Root = "."
	}
	if len(cfg.Source.IncludeExts) == 0 {
		cfg.Source.IncludeExts = append([]string(nil), DefaultIncludeExts...)
	}
	for i, ext := range cfg.Source.IncludeExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Source.IncludeExts[i] = ext
	}
	return cfg
}
