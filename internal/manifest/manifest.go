// Package manifest regenerates the repository's master manifest. The
// manifest is always rebuilt whole from the current repository
// inventory, never patched, so it cannot drift from the archives on
// disk. Output is byte-stable for identical inventories: entries are
// ordered by id and the TOML encoder sorts table keys.
package manifest

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/sumdb/dirhash"

	"addonrepo/internal/fsutil"
	"addonrepo/internal/inventory"
	"addonrepo/internal/repo"
)

// Document is the serialized form of the master manifest: one table per
// published add-on, each the verbatim key set of its descriptor.
type Document struct {
	Addons []map[string]any `toml:"addons"`
}

// Checksums maps archive file name to the dirhash of its contents.
// dirhash ignores zip metadata, so the value is stable across re-zips
// of identical sources.
type Checksums struct {
	Archives map[string]string `toml:"archives"`
}

// Write regenerates the manifest, its md5 sidecar and the archive
// checksum file from inv. Any failure here is fatal for the run: a
// repository without a current manifest is unusable by clients.
func Write(root string, inv inventory.Inventory) error {
	doc := Document{Addons: make([]map[string]any, 0, len(inv))}
	sums := Checksums{Archives: make(map[string]string, len(inv))}
	for _, id := range inv.IDs() {
		desc := inv[id]
		doc.Addons = append(doc.Addons, desc.Raw)

		archive := repo.ArchivePath(root, desc.ID, desc.Version)
		sum, err := dirhash.HashZip(archive, dirhash.Hash1)
		if err != nil {
			return fmt.Errorf("MAN_CHECKSUM: archive for %s-%s: %w", desc.ID, desc.Version, err)
		}
		sums.Archives[repo.ArchiveName(desc.ID, desc.Version)] = sum
	}

	blob, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("MAN_ENCODE: %w", err)
	}
	if err := fsutil.AtomicWrite(filepath.Join(root, repo.ManifestFile), blob, 0o644); err != nil {
		return fmt.Errorf("MAN_WRITE: %w", err)
	}

	digest := fmt.Sprintf("%x", md5.Sum(blob))
	if err := fsutil.AtomicWrite(filepath.Join(root, repo.ManifestDigestFile), []byte(digest), 0o644); err != nil {
		return fmt.Errorf("MAN_WRITE: %w", err)
	}

	sumBlob, err := toml.Marshal(sums)
	if err != nil {
		return fmt.Errorf("MAN_ENCODE: %w", err)
	}
	if err := fsutil.AtomicWrite(filepath.Join(root, repo.ChecksumsFile), sumBlob, 0o644); err != nil {
		return fmt.Errorf("MAN_WRITE: %w", err)
	}
	return nil
}

// Read loads the master manifest. A missing manifest yields an empty
// document: a freshly initialized repository publishes nothing.
func Read(root string) (Document, error) {
	blob, err := os.ReadFile(filepath.Join(root, repo.ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, nil
		}
		return Document{}, fmt.Errorf("MAN_READ: %w", err)
	}
	var doc Document
	if err := toml.Unmarshal(blob, &doc); err != nil {
		return Document{}, fmt.Errorf("MAN_PARSE: %w", err)
	}
	return doc, nil
}

// ReadChecksums loads the archive checksum file, empty when absent.
func ReadChecksums(root string) (Checksums, error) {
	blob, err := os.ReadFile(filepath.Join(root, repo.ChecksumsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Checksums{Archives: map[string]string{}}, nil
		}
		return Checksums{}, fmt.Errorf("MAN_READ: %w", err)
	}
	var sums Checksums
	if err := toml.Unmarshal(blob, &sums); err != nil {
		return Checksums{}, fmt.Errorf("MAN_PARSE: %w", err)
	}
	if sums.Archives == nil {
		sums.Archives = map[string]string{}
	}
	return sums, nil
}

// Entry returns the id and version fields of one manifest table.
func Entry(table map[string]any) (id, version string, ok bool) {
	id, ok1 := table["id"].(string)
	version, ok2 := table["version"].(string)
	return id, version, ok1 && ok2
}
