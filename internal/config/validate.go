package config

import (
	"fmt"
	"strings"
)

func Validate(cfg Config) error {
	if cfg.Version != SchemaVersion {
		return fmt.Errorf("DOC_CONFIG_VERSION: unsupported version %d", cfg.Version)
	}
	if cfg.Source.Root == "" {
		return fmt.Errorf("DOC_CONFIG_SOURCE: missing source root")
	}
	if len(cfg.Source.IncludeExts) == 0 {
		return fmt.Errorf("DOC_CONFIG_SOURCE: include_exts must not be empty")
	}
	seen := map[string]struct{}{}
	for _, ext := range cfg.Source.IncludeExts {
		if ext == "" || !strings.HasPrefix(ext, ".") || ext == "." {
			return fmt.Errorf("DOC_CONFIG_SOURCE: invalid extension %q", ext)
		}
		if _, ok := seen[ext]; ok {
			return fmt.Errorf("DOC_CONFIG_SOURCE: duplicate extension %q", ext)
		}
		seen[ext] = struct{}{}
	}
	return nil
}
