package planner

import (
	"fmt"
	"sort"

	"addonrepo/internal/inventory"
	"addonrepo/internal/version"
)

// Force overrides the version-comparison skip rule. The zero value
// forces nothing; All and ID are mutually exclusive.
type Force struct {
	All bool
	ID  string
}

func (f Force) selects(id string) bool {
	return f.All || (f.ID != "" && f.ID == id)
}

// UnknownAddonError reports a Force.ID that names no source add-on.
// It aborts the run before any filesystem write.
type UnknownAddonError struct {
	ID string
}

func (e *UnknownAddonError) Error() string {
	return fmt.Sprintf("PLAN_UNKNOWN_ADDON: forced add-on %q not present in source", e.ID)
}

// SyncPlan is the outcome of one planning pass: which add-ons to
// (re)package and whether the master manifest must be regenerated. It
// lives for a single run and is consumed immediately.
type SyncPlan struct {
	// Package holds the selected add-on ids, sorted.
	Package []string
	// Skipped holds source ids present on both sides with no newer
	// version and no force applied, sorted.
	Skipped []string
	// WriteManifest is set when packaging is selected or when the run
	// was a manifest-only force.
	WriteManifest bool
	// ManifestOnly distinguishes a forced manifest rewrite from a
	// regeneration triggered by packaging.
	ManifestOnly bool
}

// Empty reports whether the plan performs no filesystem writes at all.
func (p SyncPlan) Empty() bool {
	return len(p.Package) == 0 && !p.WriteManifest
}

// Plan merges the source and repository inventories with the force
// directives. An add-on is selected when it is new to the repository,
// when its source version is strictly newer, or when a force directive
// names it. Ids present only in the repository are never touched:
// removal of published add-ons requires an explicit operator action,
// not a source-tree deletion.
func Plan(src, repo inventory.Inventory, force Force, manifestOnly bool) (SyncPlan, error) {
	if manifestOnly {
		return SyncPlan{WriteManifest: true, ManifestOnly: true}, nil
	}
	if force.ID != "" {
		if _, ok := src[force.ID]; !ok {
			return SyncPlan{}, &UnknownAddonError{ID: force.ID}
		}
	}

	plan := SyncPlan{}
	for id, desc := range src {
		published, exists := repo[id]
		switch {
		case !exists:
			plan.Package = append(plan.Package, id)
		case desc.Parsed.Compare(published.Parsed) == version.Newer:
			plan.Package = append(plan.Package, id)
		case force.selects(id):
			plan.Package = append(plan.Package, id)
		default:
			plan.Skipped = append(plan.Skipped, id)
		}
	}
	sort.Strings(plan.Package)
	sort.Strings(plan.Skipped)
	plan.WriteManifest = len(plan.Package) > 0
	return plan, nil
}
