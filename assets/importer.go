package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/toothbrush/acmd-assets/aem"
	"golang.org/x/exp/maps"
)

const timestampFormat = "2006-01-02 15:04:05"

// Uploader is the remote side of an import.  *aem.API satisfies it.
type Uploader interface {
	CreateFolder(ctx context.Context, remotePath string, dryRun bool) error
	CreateAsset(ctx context.Context, localPath, remoteDir string, dryRun bool) error
}

// Options is everything the user chose for a run.  It is resolved once, up front, and never
// changed while importing.
type Options struct {
	Server aem.Server

	// Destination overrides the computed remote root, e.g. /content/dam/custom.
	Destination string
	// LockDir overrides the hashed lock directory.
	LockDir string

	DryRun      bool
	Raw         bool
	StrictPaths bool
	ProgressBar bool
}

type Importer struct {
	Options

	Uploader Uploader

	// Status lines go to Out (stdout when nil); the bar, if any, to BarOutput (stderr when nil).
	Out       io.Writer
	BarOutput io.Writer

	Logger *slog.Logger

	// Clock, for tests.
	Now func() time.Time
}

// importJob is the state of one ImportPath call.
type importJob struct {
	locks       LockStore
	importRoot  string
	destination string

	// outcome of each folder creation this run, nil for success; never seeded from the server
	folders map[string]error

	total   int
	current int

	bar *progressBar
}

// ImportPath uploads a file, or every non-hidden file below a directory.
//
// For a directory, per-file repository failures are recorded in the summary and the walk goes
// on; the returned error is reserved for failures that stop the whole run, such as an unreadable
// local tree.  For a single file every failure is returned.
func (im *Importer) ImportPath(ctx context.Context, target string) (*Summary, error) {
	if im.Uploader == nil {
		return nil, fmt.Errorf("assets: no uploader configured")
	}
	if err := validDestination(im.Destination); err != nil {
		return nil, err
	}

	lockDir, err := ResolveLockDir(im.LockDir, im.Server.Identity(), target)
	if err != nil {
		return nil, err
	}
	im.log().Debug("Cache dir", "path", lockDir)

	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("assets: couldn't stat %s: %w", target, err)
	}

	job := &importJob{
		locks:       LockStore{Root: lockDir},
		destination: im.Destination,
		folders:     make(map[string]error),
		total:       1,
		current:     1,
	}

	if !im.DryRun {
		release, err := job.locks.Acquire()
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(); err != nil {
				im.log().Warn("Couldn't release lock", "dir", lockDir, "err", err)
			}
		}()
	}

	if info.IsDir() {
		return im.importDirectory(ctx, job, target)
	}

	job.importRoot = filepath.Dir(target)
	result := im.importFile(ctx, job, target)
	summary := &Summary{
		Total:          1,
		Results:        []FileResult{result},
		CreatedFolders: job.createdFolders(),
	}
	if result.Err != nil {
		return summary, result.Err
	}
	return summary, nil
}

func (im *Importer) importDirectory(ctx context.Context, job *importJob, root string) (*Summary, error) {
	job.importRoot = root

	total, err := countFiles(root)
	if err != nil {
		return nil, err
	}
	job.total = total
	im.log().Info("Importing files", "count", total, "path", root)

	if im.ProgressBar {
		job.bar = newProgressBar(im.barOutput(), total)
	}

	summary := &Summary{Total: total}
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("assets: error during file tree walk: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		importable, err := isImportable(p, d)
		if err != nil {
			return err
		}
		if !importable {
			if !d.IsDir() {
				im.log().Debug("Skipping", "path", p)
			}
			return nil
		}

		result := im.importFile(ctx, job, p)
		summary.Results = append(summary.Results, result)
		job.bar.increment()

		if result.Err != nil {
			if !isPerFileError(result.Err) {
				return result.Err
			}
			im.log().Error("Failed to import", "path", p, "err", result.Err)
		}
		return nil
	})

	job.bar.finish()
	summary.CreatedFolders = job.createdFolders()

	if walkErr != nil {
		return summary, fmt.Errorf("assets: import of %s aborted: %w", root, walkErr)
	}

	im.log().Info("Import finished",
		"uploaded", summary.Count(Uploaded),
		"skipped", summary.Count(Skipped),
		"failed", summary.Count(Failed),
		"size", humanize.Bytes(uint64(summary.UploadedBytes())),
	)
	im.log().Debug("Created folders", "folders", summary.CreatedFolders)

	return summary, nil
}

// importFile runs the lock check, mapping, folder creation, upload and marker steps for one file.
func (im *Importer) importFile(ctx context.Context, job *importJob, localPath string) FileResult {
	start := im.now()
	result := FileResult{LocalPath: localPath, Outcome: Failed}

	info, err := os.Stat(localPath)
	if err != nil {
		result.Err = fmt.Errorf("assets: couldn't stat %s: %w", localPath, err)
		return result
	}
	if !info.Mode().IsRegular() {
		result.Err = &PathError{Path: localPath, Reason: "not a regular file"}
		return result
	}
	result.Size = info.Size()

	lockPath, err := job.locks.Path(localPath)
	if err != nil {
		result.Err = err
		return result
	}
	locked, err := job.locks.Exists(lockPath)
	if err != nil {
		result.Err = err
		return result
	}
	if locked {
		im.printf("%s\t%d/%d\tSkipping %s\n", im.now().Format(timestampFormat), job.current, job.total, localPath)
		result.Outcome = Skipped
		job.current++
		return result
	}

	remoteDir, err := DAMPath(localPath, job.importRoot, job.destination)
	if err != nil {
		result.Err = err
		return result
	}
	if im.StrictPaths {
		if remoteDir, err = CleanPath(remoteDir); err != nil {
			result.Err = err
			return result
		}
	}
	result.RemoteDir = remoteDir

	im.log().Debug("Uploading", "local", localPath, "remote", remoteDir)

	folderErr, attempted := job.folders[remoteDir]
	if !attempted {
		folderErr = im.Uploader.CreateFolder(ctx, remoteDir, im.DryRun)
		job.folders[remoteDir] = folderErr
	} else {
		im.log().Debug("Skipping creating folder", "remote", remoteDir, "failed", folderErr != nil)
	}
	if folderErr != nil {
		// one attempt per folder per run; its files fail with the same error
		result.Err = folderErr
		return result
	}

	if err := im.Uploader.CreateAsset(ctx, localPath, remoteDir, im.DryRun); err != nil {
		result.Err = err
		return result
	}

	end := im.now()
	result.Elapsed = end.Sub(start)
	im.printf("%s\t%d/%d\t%s -> %s\t%s\n",
		end.Format(timestampFormat), job.current, job.total, localPath, remoteDir,
		strconv.FormatFloat(result.Elapsed.Seconds(), 'g', 3, 64))

	if !im.DryRun {
		im.log().Debug("Creating lock file", "path", lockPath)
		if err := job.locks.Mark(lockPath); err != nil {
			result.Err = err
			return result
		}
	}

	result.Outcome = Uploaded
	job.current++
	return result
}

// countFiles walks the tree once to find the total for the progress counters.
func countFiles(root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("assets: error during file tree walk: %w", err)
		}
		importable, err := isImportable(p, d)
		if err != nil {
			return err
		}
		if importable {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// isImportable: regular files, or symlinks to them, whose names don't start with a dot.
func isImportable(p string, d fs.DirEntry) (bool, error) {
	if d.IsDir() || isHidden(d.Name()) {
		return false, nil
	}
	if d.Type().IsRegular() {
		return true, nil
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}

	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// dangling link
			return false, nil
		}
		return false, fmt.Errorf("assets: couldn't stat %s: %w", p, err)
	}
	return info.Mode().IsRegular(), nil
}

// Repository and path errors are contained to their file; anything else ends the walk.
func isPerFileError(err error) bool {
	var pe *PathError
	return aem.IsAssetError(err) || errors.As(err, &pe)
}

// createdFolders lists the folders whose creation succeeded, sorted.
func (job *importJob) createdFolders() []string {
	created := maps.Clone(job.folders)
	maps.DeleteFunc(created, func(_ string, err error) bool { return err != nil })

	keys := maps.Keys(created)
	sort.Strings(keys)
	return keys
}

func (im *Importer) printf(format string, a ...any) {
	out := im.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, a...)
}

func (im *Importer) barOutput() io.Writer {
	if im.BarOutput != nil {
		return im.BarOutput
	}
	return os.Stderr
}

func (im *Importer) now() time.Time {
	if im.Now != nil {
		return im.Now()
	}
	return time.Now()
}

func (im *Importer) log() *slog.Logger {
	if im.Logger != nil {
		return im.Logger
	}
	return slog.Default()
}
