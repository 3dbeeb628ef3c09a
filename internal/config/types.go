package config

// Config is the frozen v1 schema for the tool configuration file.
type Config struct {
	Version    int              `toml:"version"`
	Source     SourceConfig     `toml:"source"`
	Repository RepositoryConfig `toml:"repository"`
	Audit      AuditConfig      `toml:"audit"`
}

// SourceConfig describes the add-on source tree.
type SourceConfig struct {
	// Root is the default source directory when the CLI is given none.
	Root string `toml:"root"`
	// IncludeExts whitelists the file extensions packed into release
	// archives. Everything else in an add-on directory stays out.
	IncludeExts []string `toml:"include_exts"`
}

// RepositoryConfig holds repository-side policy.
type RepositoryConfig struct {
	// PruneSuperseded deletes older release archives of an add-on once
	// a newer one is written. Off by default so clients can roll back.
	PruneSuperseded bool `toml:"prune_superseded"`
}

// AuditConfig controls the JSON-lines run log.
type AuditConfig struct {
	// LogPath appends one event per line when set; empty disables the
	// audit log.
	LogPath string `toml:"log_path,omitempty"`
}
