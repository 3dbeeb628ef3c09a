package app

import (
	"fmt"
	"os"
	"sort"

	"golang.org/x/mod/sumdb/dirhash"

	"addonrepo/internal/audit"
	"addonrepo/internal/inventory"
	"addonrepo/internal/manifest"
	"addonrepo/internal/repo"
)

// VerifyReport lists every invariant violation found in the repository.
type VerifyReport struct {
	OK       bool     `json:"ok"`
	Addons   int      `json:"addons"`
	Problems []string `json:"problems,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Verify checks the published invariant: every manifest entry has a
// descriptor and an archive of the same version with a matching
// recorded checksum, and every published descriptor appears in the
// manifest. Retained older archives are not violations.
func (s *Service) Verify() (VerifyReport, error) {
	report := VerifyReport{}
	if _, err := os.Stat(s.RepoRoot); err != nil {
		return report, fmt.Errorf("APP_REPO: %w", err)
	}

	doc, err := manifest.Read(s.RepoRoot)
	if err != nil {
		return report, err
	}
	sums, err := manifest.ReadChecksums(s.RepoRoot)
	if err != nil {
		return report, err
	}
	inv, warnings, err := inventory.Scan(s.RepoRoot)
	if err != nil {
		return report, fmt.Errorf("APP_REPO: %w", err)
	}
	for _, w := range warnings {
		report.Warnings = append(report.Warnings, w.String())
	}
	report.Addons = len(doc.Addons)

	listed := map[string]string{}
	for i, table := range doc.Addons {
		id, version, ok := manifest.Entry(table)
		if !ok {
			report.Problems = append(report.Problems, fmt.Sprintf("manifest entry %d has no id/version", i))
			continue
		}
		if _, dup := listed[id]; dup {
			report.Problems = append(report.Problems, fmt.Sprintf("manifest lists %s twice", id))
			continue
		}
		listed[id] = version

		desc, published := inv[id]
		switch {
		case !published:
			report.Problems = append(report.Problems, fmt.Sprintf("manifest lists %s %s but no descriptor is published", id, version))
		case desc.Version != version:
			report.Problems = append(report.Problems, fmt.Sprintf("manifest lists %s %s but published descriptor says %s", id, version, desc.Version))
		}

		name := repo.ArchiveName(id, version)
		sum, err := dirhash.HashZip(repo.ArchivePath(s.RepoRoot, id, version), dirhash.Hash1)
		if err != nil {
			report.Problems = append(report.Problems, fmt.Sprintf("archive %s unreadable: %v", name, err))
			continue
		}
		recorded, ok := sums.Archives[name]
		switch {
		case !ok:
			report.Problems = append(report.Problems, fmt.Sprintf("archive %s has no recorded checksum", name))
		case recorded != sum:
			report.Problems = append(report.Problems, fmt.Sprintf("archive %s checksum mismatch", name))
		}
	}

	for _, id := range inv.IDs() {
		if _, ok := listed[id]; !ok {
			report.Problems = append(report.Problems, fmt.Sprintf("published add-on %s missing from manifest", id))
		}
	}
	sort.Strings(report.Problems)
	report.OK = len(report.Problems) == 0

	status := "ok"
	if !report.OK {
		status = "failed"
	}
	_ = s.Audit.Log(audit.Event{
		Operation: "verify", Phase: "done", Status: status,
		Message: fmt.Sprintf("addons=%d problems=%d", report.Addons, len(report.Problems)),
	})
	return report, nil
}
