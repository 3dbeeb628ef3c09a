package config

const (
	SchemaVersion = 1
)

// DefaultIncludeExts mirrors the file types a media-center add-on ships:
// code, descriptors, artwork, text and translations.
var DefaultIncludeExts = []string{".py", ".xml", ".toml", ".jpg", ".png", ".txt", ".po"}

// DefaultConfig returns a fully-populated v1 config document.
func DefaultConfig() Config {
	return Config{
		Version: SchemaVersion,
		Source: SourceConfig{
			Root:        ".",
			IncludeExts: append([]string(nil), DefaultIncludeExts...),
		},
		Repository: RepositoryConfig{
			PruneSuperseded: false,
		},
	}
}
