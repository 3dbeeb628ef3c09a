package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"addonrepo/internal/addon"
)

// IgnoreMarker excludes a source subdirectory from the inventory even
// when it carries a descriptor (work-in-progress add-ons).
const IgnoreMarker = ".repoignore"

// Inventory maps add-on id to its descriptor for one side (source or
// repository) of a run. It is built once per run and treated as a
// read-only snapshot afterwards.
type Inventory map[string]addon.Descriptor

// Warning records a subdirectory that looked like an add-on but had a
// malformed descriptor. The directory is excluded; the run continues.
type Warning struct {
	Dir string
	Err error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Dir, w.Err)
}

// IDs returns the inventory's add-on ids in sorted order.
func (inv Inventory) IDs() []string {
	ids := make([]string, 0, len(inv))
	for id := range inv {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Scan enumerates the immediate subdirectories of root and reads each
// one's descriptor. Directories without a descriptor are skipped
// silently; malformed descriptors are returned as warnings. Scan fails
// only when root itself cannot be enumerated.
func Scan(root string) (Inventory, []Warning, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("INV_SCAN: %w", err)
	}

	inv := Inventory{}
	var warnings []Warning
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, IgnoreMarker)); err == nil {
			continue
		}
		desc, err := addon.ReadDescriptor(dir)
		if err != nil {
			if errors.Is(err, addon.ErrMissingDescriptor) {
				continue
			}
			warnings = append(warnings, Warning{Dir: dir, Err: err})
			continue
		}
		inv[desc.ID] = desc
	}
	return inv, warnings, nil
}
