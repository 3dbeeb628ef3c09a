package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"addonrepo/internal/addon"
	"addonrepo/internal/audit"
	"addonrepo/internal/config"
	"addonrepo/internal/inventory"
	"addonrepo/internal/manifest"
	"addonrepo/internal/packager"
	"addonrepo/internal/planner"
	"addonrepo/internal/repo"
)

type Options struct {
	ConfigPath string
	RepoRoot   string
	SourceRoot string // overrides the configured default when set
}

// Service wires the run pipeline: inventories feed the planner, the
// planner drives the packager, and the manifest writer runs last.
type Service struct {
	Config     config.Config
	RepoRoot   string
	SourceRoot string
	Audit      *audit.Logger
}

func New(opts Options) (*Service, error) {
	if opts.RepoRoot == "" {
		return nil, fmt.Errorf("APP_REPO: repository path is required")
	}
	cfg, err := config.Ensure(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	sourceRoot := opts.SourceRoot
	if sourceRoot == "" {
		sourceRoot, err = config.ResolveSourceRoot(cfg)
		if err != nil {
			return nil, err
		}
	}
	repoRoot, err := filepath.Abs(opts.RepoRoot)
	if err != nil {
		return nil, err
	}
	sourceRoot, err = filepath.Abs(sourceRoot)
	if err != nil {
		return nil, err
	}
	return &Service{
		Config:     cfg,
		RepoRoot:   repoRoot,
		SourceRoot: sourceRoot,
		Audit:      audit.New(cfg.Audit.LogPath),
	}, nil
}

// UpdateOptions are the per-run policy knobs.
type UpdateOptions struct {
	Force        planner.Force
	ManifestOnly bool
	DryRun       bool
	Jobs         int
}

// PackagedAddon is one successfully republished add-on.
type PackagedAddon struct {
	ID       string   `json:"id"`
	Version  string   `json:"version"`
	Archive  string   `json:"archive"`
	Checksum string   `json:"checksum"`
	Pruned   []string `json:"pruned,omitempty"`
}

// FailedAddon is one add-on whose packaging failed. Other add-ons keep
// going; the failure only shows in the exit code and this record.
type FailedAddon struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Error   string `json:"error"`
}

// Report is the user-visible outcome of one run.
type Report struct {
	Selected        []string        `json:"selected,omitempty"` // dry-run: ids that would be packaged
	Packaged        []PackagedAddon `json:"packaged,omitempty"`
	Skipped         []string        `json:"skipped,omitempty"`
	Failed          []FailedAddon   `json:"failed,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
	ManifestWritten bool            `json:"manifestWritten"`
	DryRun          bool            `json:"dryRun,omitempty"`
}

// Update synchronizes the repository with the source tree. Fatal errors
// (unknown forced id, unwritable manifest) are returned; per-add-on
// packaging failures land in the report instead.
func (s *Service) Update(ctx context.Context, opts UpdateOptions) (Report, error) {
	report := Report{DryRun: opts.DryRun}

	src, srcWarnings, err := inventory.Scan(s.SourceRoot)
	if err != nil {
		return report, fmt.Errorf("APP_SOURCE: %w", err)
	}
	published, repoWarnings, err := s.scanRepository()
	if err != nil {
		return report, err
	}
	for _, w := range append(srcWarnings, repoWarnings...) {
		report.Warnings = append(report.Warnings, w.String())
	}

	plan, err := planner.Plan(src, published, opts.Force, opts.ManifestOnly)
	if err != nil {
		return report, err
	}
	report.Skipped = plan.Skipped

	if plan.Empty() {
		return report, nil
	}
	if opts.DryRun {
		// DryRun + ManifestWritten reads as "would be regenerated".
		report.Selected = plan.Package
		report.ManifestWritten = plan.WriteManifest
		return report, nil
	}

	_ = s.Audit.Log(audit.Event{
		Operation: "update", Phase: "start", Status: "ok",
		Message: fmt.Sprintf("selected=%d skipped=%d", len(plan.Package), len(plan.Skipped)),
	})

	if err := repo.EnsureLayout(s.RepoRoot); err != nil {
		return report, err
	}

	if len(plan.Package) > 0 {
		pack := &packager.Service{
			SourceRoot:  s.SourceRoot,
			RepoRoot:    s.RepoRoot,
			IncludeExts: s.Config.Source.IncludeExts,
			Prune:       s.Config.Repository.PruneSuperseded,
			Audit:       s.Audit,
		}
		results := pack.PackageAll(ctx, descriptorsFor(src, plan.Package), opts.Jobs)
		for _, res := range results {
			if res.Err != nil {
				report.Failed = append(report.Failed, FailedAddon{ID: res.ID, Version: res.Version, Error: res.Err.Error()})
				continue
			}
			report.Packaged = append(report.Packaged, PackagedAddon{
				ID: res.ID, Version: res.Version, Archive: res.Archive,
				Checksum: res.Checksum, Pruned: res.Pruned,
			})
		}
		sort.Slice(report.Packaged, func(i, j int) bool { return report.Packaged[i].ID < report.Packaged[j].ID })
		sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].ID < report.Failed[j].ID })
	}

	// The manifest reflects the post-packaging on-disk state, including
	// add-ons that failed this run but were published before.
	current, currentWarnings, err := inventory.Scan(s.RepoRoot)
	if err != nil {
		return report, fmt.Errorf("APP_RESCAN: %w", err)
	}
	for _, w := range currentWarnings {
		report.Warnings = append(report.Warnings, w.String())
	}
	if err := manifest.Write(s.RepoRoot, current); err != nil {
		_ = s.Audit.Log(audit.Event{Operation: "update", Phase: "manifest", Status: "failed", Message: err.Error()})
		return report, err
	}
	report.ManifestWritten = true
	_ = s.Audit.Log(audit.Event{
		Operation: "update", Phase: "manifest", Status: "ok",
		Message: fmt.Sprintf("addons=%d", len(current)),
	})
	return report, nil
}

// Plan computes and reports the sync plan without writing anything.
func (s *Service) Plan(ctx context.Context, force planner.Force, manifestOnly bool) (Report, error) {
	return s.Update(ctx, UpdateOptions{Force: force, ManifestOnly: manifestOnly, DryRun: true})
}

func descriptorsFor(inv inventory.Inventory, ids []string) []addon.Descriptor {
	descs := make([]addon.Descriptor, 0, len(ids))
	for _, id := range ids {
		descs = append(descs, inv[id])
	}
	return descs
}

// scanRepository builds the repository-side inventory, treating a
// not-yet-created repository root as empty.
func (s *Service) scanRepository() (inventory.Inventory, []inventory.Warning, error) {
	if _, err := os.Stat(s.RepoRoot); os.IsNotExist(err) {
		return inventory.Inventory{}, nil, nil
	}
	inv, warnings, err := inventory.Scan(s.RepoRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("APP_REPO: %w", err)
	}
	return inv, warnings, nil
}
