package packager

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/sumdb/dirhash"

	"addonrepo/internal/addon"
	"addonrepo/internal/audit"
	"addonrepo/internal/fsutil"
	"addonrepo/internal/repo"
)

// assetFiles are copied verbatim from the add-on source directory into
// its repository directory so clients can fetch artwork and the
// descriptor without unpacking the archive.
var assetFiles = []string{addon.DescriptorFile, "icon.png", "fanart.jpg"}

// changelogFile is republished under a versioned name so changelogs of
// retained older releases stay readable.
const changelogFile = "changelog.txt"

// Service packages selected add-ons into the repository. Each add-on is
// packaged independently: one failure never stops the others.
type Service struct {
	SourceRoot  string
	RepoRoot    string
	IncludeExts []string
	// Prune removes superseded archives of an add-on after its new
	// archive is committed.
	Prune bool
	Audit *audit.Logger
}

// Result is the per-add-on outcome of one packaging attempt.
type Result struct {
	ID       string
	Version  string
	Archive  string   // archive file name under the add-on directory
	Checksum string   // dirhash of the archive contents
	Pruned   []string // superseded archives removed, if pruning is on
	Err      error
}

// PackageAll packages every descriptor with at most jobs concurrent
// workers. Results are returned in input order. Workers touch only
// their own add-on's repository directory, so the pool needs no shared
// state beyond the result slice.
func (s *Service) PackageAll(_ context.Context, descs []addon.Descriptor, jobs int) []Result {
	results := make([]Result, len(descs))
	if jobs < 1 {
		jobs = 1
	}
	if jobs == 1 || len(descs) < 2 {
		for i, desc := range descs {
			results[i] = s.Package(desc)
		}
		return results
	}

	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i, desc := range descs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, desc addon.Descriptor) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.Package(desc)
		}(i, desc)
	}
	wg.Wait()
	return results
}

// Package refreshes one add-on's repository directory: release archive,
// descriptor and asset copies, versioned changelog, optional prune.
func (s *Service) Package(desc addon.Descriptor) Result {
	res := s.packageOne(desc)
	ev := audit.Event{
		Operation: "update", Phase: "package", Status: "ok",
		Addon: res.ID, Version: res.Version, Archive: res.Archive, Checksum: res.Checksum,
	}
	if res.Err != nil {
		ev.Status = "failed"
		ev.Message = res.Err.Error()
	}
	_ = s.Audit.Log(ev)
	return res
}

func (s *Service) packageOne(desc addon.Descriptor) Result {
	res := Result{ID: desc.ID, Version: desc.Version, Archive: repo.ArchiveName(desc.ID, desc.Version)}

	srcDir := filepath.Join(s.SourceRoot, desc.ID)
	destDir := repo.AddonDir(s.RepoRoot, desc.ID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		res.Err = fmt.Errorf("PKG_DEST: %w", err)
		return res
	}

	archivePath := repo.ArchivePath(s.RepoRoot, desc.ID, desc.Version)
	if err := s.writeArchive(srcDir, desc.ID, archivePath); err != nil {
		res.Err = err
		return res
	}

	sum, err := dirhash.HashZip(archivePath, dirhash.Hash1)
	if err != nil {
		res.Err = fmt.Errorf("PKG_CHECKSUM: %w", err)
		return res
	}
	res.Checksum = sum

	if err := s.copyAssets(srcDir, destDir, desc.Version); err != nil {
		res.Err = err
		return res
	}

	if s.Prune {
		pruned, err := repo.PruneSuperseded(s.RepoRoot, desc.ID, desc.Version)
		res.Pruned = pruned
		if err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

// writeArchive zips the whitelisted files of srcDir, entries rooted at
// id/, into a tmp file renamed over path on success.
func (s *Service) writeArchive(srcDir, id, path string) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("PKG_ARCHIVE: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	zw := zip.NewWriter(f)
	walkErr := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if d.IsDir() || !s.includes(d.Name()) {
			return nil
		}
		rel, rerr := filepath.Rel(srcDir, p)
		if rerr != nil {
			return rerr
		}
		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		header, herr := zip.FileInfoHeader(info)
		if herr != nil {
			return herr
		}
		header.Name = filepath.ToSlash(filepath.Join(id, rel))
		header.Method = zip.Deflate
		w, werr2 := zw.CreateHeader(header)
		if werr2 != nil {
			return werr2
		}
		in, oerr := os.Open(p)
		if oerr != nil {
			return oerr
		}
		defer in.Close()
		_, cerr := io.Copy(w, in)
		return cerr
	})
	if walkErr != nil {
		_ = zw.Close()
		_ = f.Close()
		return fmt.Errorf("PKG_ARCHIVE: %w", walkErr)
	}
	if cerr := zw.Close(); cerr != nil {
		_ = f.Close()
		return fmt.Errorf("PKG_ARCHIVE: %w", cerr)
	}
	if cerr := f.Close(); cerr != nil {
		return fmt.Errorf("PKG_ARCHIVE: %w", cerr)
	}
	if rerr := os.Rename(tmp, path); rerr != nil {
		return fmt.Errorf("PKG_ARCHIVE: %w", rerr)
	}
	return nil
}

func (s *Service) includes(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.IncludeExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// copyAssets republishes the descriptor, artwork and changelog next to
// the archives. Absent assets are skipped; only the descriptor is
// guaranteed to exist.
func (s *Service) copyAssets(srcDir, destDir, version string) error {
	for _, name := range assetFiles {
		src := filepath.Join(srcDir, name)
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("PKG_ASSET: %w", err)
		}
		if err := fsutil.CopyFile(src, filepath.Join(destDir, name)); err != nil {
			return fmt.Errorf("PKG_ASSET: %w", err)
		}
	}
	changelog := filepath.Join(srcDir, changelogFile)
	if _, err := os.Stat(changelog); err == nil {
		dest := filepath.Join(destDir, fmt.Sprintf("changelog-%s.txt", version))
		if err := fsutil.CopyFile(changelog, dest); err != nil {
			return fmt.Errorf("PKG_ASSET: %w", err)
		}
	}
	return nil
}
