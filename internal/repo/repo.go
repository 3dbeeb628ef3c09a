package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ManifestFile is the master manifest at the repository root.
const ManifestFile = "addons.toml"

// ManifestDigestFile is the md5 sidecar clients fetch alongside the
// manifest to detect changes cheaply.
const ManifestDigestFile = ManifestFile + ".md5"

// ChecksumsFile records a content hash per published archive.
const ChecksumsFile = "checksums.toml"

// EnsureLayout creates the repository root if needed.
func EnsureLayout(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("REPO_LAYOUT: %w", err)
	}
	return nil
}

// AddonDir is the per-add-on directory holding the published
// descriptor, assets and archives.
func AddonDir(root, id string) string {
	return filepath.Join(root, id)
}

// ArchiveName names one add-on release archive. Id and version together
// keep distinct versions from colliding in the add-on directory.
func ArchiveName(id, version string) string {
	return fmt.Sprintf("%s-%s.zip", id, version)
}

// ArchivePath is the on-disk location of one release archive.
func ArchivePath(root, id, version string) string {
	return filepath.Join(AddonDir(root, id), ArchiveName(id, version))
}

// ParseArchiveName splits an archive file name back into id and
// version. Version strings contain no dash, so the split point is the
// last dash before the extension.
func ParseArchiveName(name string) (id, version string, ok bool) {
	stem, found := strings.CutSuffix(name, ".zip")
	if !found {
		return "", "", false
	}
	i := strings.LastIndex(stem, "-")
	if i <= 0 || i == len(stem)-1 {
		return "", "", false
	}
	return stem[:i], stem[i+1:], true
}

// Archives lists the release archives currently present for one add-on,
// sorted by name. A missing add-on directory yields an empty list.
func Archives(root, id string) ([]string, error) {
	entries, err := os.ReadDir(AddonDir(root, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("REPO_SCAN: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if aid, _, ok := ParseArchiveName(entry.Name()); ok && aid == id {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// PruneSuperseded removes every archive of id except the one for
// keepVersion. Used only when the retention policy says so; the default
// keeps old versions for rollback.
func PruneSuperseded(root, id, keepVersion string) ([]string, error) {
	names, err := Archives(root, id)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, name := range names {
		if name == ArchiveName(id, keepVersion) {
			continue
		}
		if err := os.Remove(filepath.Join(AddonDir(root, id), name)); err != nil {
			return removed, fmt.Errorf("REPO_PRUNE: %w", err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}
