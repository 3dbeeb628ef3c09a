package addon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"addonrepo/internal/version"
)

// DescriptorFile is the per-add-on descriptor name, present in every
// add-on directory on both the source and repository side.
const DescriptorFile = "addon.toml"

// ErrMissingDescriptor marks a directory that carries no descriptor at
// all. Such directories are not add-ons and are silently skipped.
var ErrMissingDescriptor = errors.New("DESC_MISSING: no addon descriptor")

// MalformedError marks a descriptor that exists but cannot be used:
// unparseable document, missing id/version, or an invalid version string.
type MalformedError struct {
	Dir string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("DESC_MALFORMED: %s: %v", e.Dir, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Descriptor is the parsed identity of one add-on directory. Raw holds
// the full decoded document and is carried into the repository manifest
// unmodified; only id and version are ever interpreted.
type Descriptor struct {
	ID      string
	Version string
	Parsed  version.Version
	Raw     map[string]any
}

// ReadDescriptor loads and validates the descriptor in dir. It is
// read-only: no file under dir is created or modified.
func ReadDescriptor(dir string) (Descriptor, error) {
	path := filepath.Join(dir, DescriptorFile)
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrMissingDescriptor, dir)
		}
		return Descriptor{}, &MalformedError{Dir: dir, Err: err}
	}

	var raw map[string]any
	if err := toml.Unmarshal(blob, &raw); err != nil {
		return Descriptor{}, &MalformedError{Dir: dir, Err: fmt.Errorf("DESC_PARSE: %w", err)}
	}

	id, err := stringField(raw, "id")
	if err != nil {
		return Descriptor{}, &MalformedError{Dir: dir, Err: err}
	}
	ver, err := stringField(raw, "version")
	if err != nil {
		return Descriptor{}, &MalformedError{Dir: dir, Err: err}
	}
	parsed, err := version.Parse(ver)
	if err != nil {
		return Descriptor{}, &MalformedError{Dir: dir, Err: err}
	}
	if base := filepath.Base(dir); base != id {
		return Descriptor{}, &MalformedError{Dir: dir, Err: fmt.Errorf("DESC_ID_MISMATCH: id %q does not match directory %q", id, base)}
	}

	return Descriptor{ID: id, Version: ver, Parsed: parsed, Raw: raw}, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	value, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("DESC_FIELD: missing required field %q", key)
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("DESC_FIELD: field %q must be a non-empty string", key)
	}
	return s, nil
}
