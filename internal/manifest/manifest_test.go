package manifest

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"addonrepo/internal/addon"
	"addonrepo/internal/inventory"
	"addonrepo/internal/packager"
	"addonrepo/internal/repo"
	"addonrepo/internal/version"
)

// publish packages one add-on into root so its archive exists for the
// checksum pass.
func publish(t *testing.T, srcRoot, root, id, ver string, extra map[string]string) addon.Descriptor {
	t.Helper()
	dir := filepath.Join(srcRoot, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := fmt.Sprintf("id = %q\nversion = %q\nname = %q\n", id, ver, "Name of "+id)
	if err := os.WriteFile(filepath.Join(dir, addon.DescriptorFile), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	for name, content := range extra {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	desc, err := addon.ReadDescriptor(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc := &packager.Service{SourceRoot: srcRoot, RepoRoot: root, IncludeExts: []string{".py", ".toml"}}
	if res := svc.Package(desc); res.Err != nil {
		t.Fatalf("package %s: %v", id, res.Err)
	}
	return desc
}

func TestWriteAndRead(t *testing.T) {
	srcRoot, root := t.TempDir(), t.TempDir()
	publish(t, srcRoot, root, "plugin.video.b", "2.0", map[string]string{"b.py": "b"})
	publish(t, srcRoot, root, "plugin.video.a", "1.0", map[string]string{"a.py": "a"})

	inv, _, err := inventory.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(root, inv); err != nil {
		t.Fatalf("Write: %v", err)
	}

	doc, err := Read(root)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(doc.Addons) != 2 {
		t.Fatalf("entries = %d, want 2", len(doc.Addons))
	}
	id0, ver0, _ := Entry(doc.Addons[0])
	id1, ver1, _ := Entry(doc.Addons[1])
	if id0 != "plugin.video.a" || id1 != "plugin.video.b" {
		t.Errorf("entries not ordered by id: %s, %s", id0, id1)
	}
	if ver0 != "1.0" || ver1 != "2.0" {
		t.Errorf("versions = %s, %s", ver0, ver1)
	}
	if doc.Addons[0]["name"] != "Name of plugin.video.a" {
		t.Error("descriptor metadata must pass through into the manifest")
	}
}

func TestWriteIsByteStable(t *testing.T) {
	srcRoot, root := t.TempDir(), t.TempDir()
	publish(t, srcRoot, root, "plugin.x", "1.0", map[string]string{"a.py": "a"})

	inv, _, err := inventory.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(root, inv); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(filepath.Join(root, repo.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}

	if err := Write(root, inv); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(filepath.Join(root, repo.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical inventories must produce byte-identical manifests")
	}
}

func TestWriteDigestSidecar(t *testing.T) {
	srcRoot, root := t.TempDir(), t.TempDir()
	publish(t, srcRoot, root, "plugin.x", "1.0", nil)

	inv, _, err := inventory.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(root, inv); err != nil {
		t.Fatal(err)
	}

	blob, err := os.ReadFile(filepath.Join(root, repo.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	digest, err := os.ReadFile(filepath.Join(root, repo.ManifestDigestFile))
	if err != nil {
		t.Fatal(err)
	}
	if want := fmt.Sprintf("%x", md5.Sum(blob)); string(digest) != want {
		t.Errorf("sidecar = %s, want %s", digest, want)
	}
}

func TestWriteChecksums(t *testing.T) {
	srcRoot, root := t.TempDir(), t.TempDir()
	publish(t, srcRoot, root, "plugin.x", "1.0", map[string]string{"a.py": "a"})

	inv, _, err := inventory.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(root, inv); err != nil {
		t.Fatal(err)
	}

	sums, err := ReadChecksums(root)
	if err != nil {
		t.Fatalf("ReadChecksums: %v", err)
	}
	sum, ok := sums.Archives["plugin.x-1.0.zip"]
	if !ok || sum == "" {
		t.Errorf("Archives = %v, want a hash for plugin.x-1.0.zip", sums.Archives)
	}
}

func TestWriteFailsOnMissingArchive(t *testing.T) {
	root := t.TempDir()
	inv := inventory.Inventory{
		"plugin.ghost": addon.Descriptor{
			ID: "plugin.ghost", Version: "1.0", Parsed: version.MustParse("1.0"),
			Raw: map[string]any{"id": "plugin.ghost", "version": "1.0"},
		},
	}
	if err := Write(root, inv); err == nil {
		t.Fatal("a manifest entry without its archive must fail the write")
	}
}

func TestReadMissingManifestIsEmpty(t *testing.T) {
	doc, err := Read(t.TempDir())
	if err != nil || len(doc.Addons) != 0 {
		t.Errorf("missing manifest should read empty, got (%v, %v)", doc, err)
	}
}
