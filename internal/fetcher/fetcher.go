// Package fetcher materializes planned parts on disk, downloading only what is missing.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"

	"serialsync/internal/crawler"
	"serialsync/internal/logger"
	"serialsync/internal/models"
)

// LockFileName is the advisory lock held in the publication folder during a fetch.
const LockFileName = ".serialsync.lock"

// partialSuffix marks a download in progress.
const partialSuffix = ".part"

// Fetch errors. Per-part failures are reported in results, not here.
var (
	ErrLocked        = errors.New("publication folder is locked by another run")
	ErrNoPublication = errors.New("publication is required")
)

var illegalChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// UntitledFolder replaces titles that leave no usable folder name.
const UntitledFolder = "untitled"

// FolderName strips characters that are illegal in file names from a title.
// Names that are empty or made only of dots would resolve to the base directory
// or its parent, so they become UntitledFolder.
func FolderName(title string) string {
	name := strings.TrimSpace(illegalChars.ReplaceAllString(title, ""))
	if strings.Trim(name, ".") == "" {
		return UntitledFolder
	}

	return name
}

// FileName returns the local file name for a part: the last segment of its ref plus the format.
func FileName(ref, format string) string {
	return path.Base(strings.TrimRight(ref, "/")) + "." + format
}

// Downloader streams a remote resource into w.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Report is the outcome of one Fetch call.
type Report struct {
	Results    []models.FetchResult
	Downloaded int
	Existing   int
	Failed     int
}

// Fetcher downloads parts into one folder per publication.
type Fetcher struct {
	downloader Downloader
	log        *logger.Logger
	basePath   string
	format     string
}

// New creates a fetcher writing below basePath in the given download format.
func New(downloader Downloader, basePath, format string, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Discard()
	}

	return &Fetcher{
		downloader: downloader,
		log:        log,
		basePath:   basePath,
		format:     format,
	}
}

// Folder returns the publication's local folder.
func (f *Fetcher) Folder(pub *models.Publication) string {
	return filepath.Join(f.basePath, FolderName(pub.Title))
}

// ArchivePath returns the path of the assembled archive, next to the folder.
func (f *Fetcher) ArchivePath(pub *models.Publication) string {
	return filepath.Join(f.basePath, FolderName(pub.Title)+".epub")
}

// PartPath returns the deterministic local path of a part.
func (f *Fetcher) PartPath(pub *models.Publication, ref string) string {
	return filepath.Join(f.Folder(pub), FileName(ref, f.format))
}

// Fetch materializes every planned part in plan order. Parts already on disk are
// not downloaded again; a failed part is recorded and the next one is tried.
// Cancelling ctx stops the loop with an error. An empty plan touches neither
// disk nor network.
func (f *Fetcher) Fetch(ctx context.Context, pub *models.Publication, plan models.FetchPlan) (*Report, error) {
	report := &Report{Results: make([]models.FetchResult, 0, len(plan))}
	if len(plan) == 0 {
		return report, nil
	}

	if pub == nil {
		return nil, ErrNoPublication
	}

	resolver, err := crawler.NewResolver(pub.IndexURL)
	if err != nil {
		return nil, err
	}

	folder := f.Folder(pub)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", folder, err)
	}

	f.log.Info("📁 Using folder", "folder", folder)

	lock := flock.New(filepath.Join(folder, LockFileName))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", folder, err)
	}

	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, folder)
	}

	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			f.log.Warn("Failed to release folder lock", "folder", folder, "error", unlockErr)
		}
	}()

	for i, part := range plan {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch interrupted after %d of %d parts: %w", i, len(plan), err)
		}

		f.log.Info(fmt.Sprintf("Processing part %d/%d: %s", i+1, len(plan), part.DisplayName()), "ref", part.SourceRef)

		result, downloaded := f.fetchOne(ctx, resolver, pub, part)
		report.Results = append(report.Results, result)

		switch {
		case result.Err != nil:
			report.Failed++
		case downloaded:
			report.Downloaded++
		default:
			report.Existing++
		}
	}

	return report, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, resolver *crawler.Resolver, pub *models.Publication, part models.PartDescriptor) (models.FetchResult, bool) {
	result := models.FetchResult{SourceRef: part.SourceRef}
	filePath := f.PartPath(pub, part.SourceRef)

	if FileExists(filePath) {
		f.log.Info("⏭️  File already exists, skip downloading", "file", filePath)

		result.Path = filePath

		return result, false
	}

	url := resolver.DownloadURL(part.SourceRef, f.format)
	f.log.Info(fmt.Sprintf("⏳ Downloading %s", url), "file", filePath)

	if err := f.download(ctx, url, filePath); err != nil {
		f.log.Error("❌ Failed to fetch part", "ref", part.SourceRef, "error", err)

		result.Err = err

		return result, false
	}

	f.log.Info("✅ Saved part", "file", filePath)

	result.Path = filePath

	return result, true
}

// download streams url into a temporary file and renames it into place, so an
// interrupted transfer never looks like a completed part.
func (f *Fetcher) download(ctx context.Context, url, filePath string) error {
	tmpPath := filePath + partialSuffix

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	written, err := f.downloader.Download(ctx, url, file)
	closeErr := file.Close()

	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write %s: %w", tmpPath, closeErr)
	}

	if err != nil {
		_ = os.Remove(tmpPath)

		return err
	}

	if FileExists(filePath) {
		_ = os.Remove(tmpPath)

		return nil
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("failed to move %s into place: %w", filePath, err)
	}

	f.log.Debug("Downloaded bytes", "file", filePath, "bytes", written)

	return nil
}

// FileExists reports whether p is an existing regular file.
func FileExists(p string) bool {
	info, err := os.Stat(p)

	return err == nil && !info.IsDir()
}
