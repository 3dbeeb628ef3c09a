package app

import (
	"fmt"
	"os"
	"path/filepath"

	"addonrepo/internal/audit"
	"addonrepo/internal/inventory"
	"addonrepo/internal/manifest"
	"addonrepo/internal/repo"
)

// Init creates an empty repository skeleton: the root directory, an
// empty manifest with its sidecar, and an empty checksum file. It
// refuses to touch a repository that already has a manifest.
func (s *Service) Init() error {
	manifestPath := filepath.Join(s.RepoRoot, repo.ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("APP_INIT: repository already initialized at %s", s.RepoRoot)
	}
	if err := repo.EnsureLayout(s.RepoRoot); err != nil {
		return err
	}
	if err := manifest.Write(s.RepoRoot, inventory.Inventory{}); err != nil {
		return err
	}
	_ = s.Audit.Log(audit.Event{Operation: "init", Phase: "done", Status: "ok", Message: s.RepoRoot})
	return nil
}
