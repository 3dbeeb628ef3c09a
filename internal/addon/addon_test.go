package addon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDescriptor(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, DescriptorFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadDescriptor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plugin.video.example")
	writeDescriptor(t, dir, `
id = "plugin.video.example"
version = "1.2.10"
name = "Example"
provider = "someone"

[extension]
point = "xbmc.python.pluginsource"
`)

	desc, err := ReadDescriptor(dir)
	if err != nil {
		t.Fatalf("ReadDescriptor: %v", err)
	}
	if desc.ID != "plugin.video.example" || desc.Version != "1.2.10" {
		t.Errorf("descriptor = %s %s, want plugin.video.example 1.2.10", desc.ID, desc.Version)
	}
	if desc.Raw["name"] != "Example" {
		t.Errorf("metadata passthrough lost: %v", desc.Raw["name"])
	}
	if _, ok := desc.Raw["extension"]; !ok {
		t.Error("nested metadata table should survive in Raw")
	}
}

func TestReadDescriptorMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not.an.addon")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := ReadDescriptor(dir)
	if !errors.Is(err, ErrMissingDescriptor) {
		t.Fatalf("expected ErrMissingDescriptor, got %v", err)
	}
}

func TestReadDescriptorMalformed(t *testing.T) {
	cases := map[string]string{
		"bad toml":        `id = `,
		"missing id":      `version = "1.0"`,
		"missing version": `id = "plugin.x"`,
		"empty id":        "id = \"\"\nversion = \"1.0\"",
		"bad version":     "id = \"plugin.x\"\nversion = \"one.two\"",
		"non-string id":   "id = 7\nversion = \"1.0\"",
	}
	for name, content := range cases {
		dir := filepath.Join(t.TempDir(), "plugin.x")
		writeDescriptor(t, dir, content)
		_, err := ReadDescriptor(dir)
		var malformed *MalformedError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: expected MalformedError, got %v", name, err)
		}
	}
}

func TestReadDescriptorIDMustMatchDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plugin.video.example")
	writeDescriptor(t, dir, "id = \"plugin.other\"\nversion = \"1.0\"")
	_, err := ReadDescriptor(dir)
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError for id/directory mismatch, got %v", err)
	}
}
