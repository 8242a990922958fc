package assets

import (
	"time"

	"github.com/toothbrush/acmd-assets/internal/exitcode"
)

type Outcome int8

const (
	Uploaded Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Uploaded:
		return "uploaded"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// FileResult is what happened to one local file.
type FileResult struct {
	LocalPath string
	RemoteDir string // empty when the file was skipped before mapping
	Outcome   Outcome
	Size      int64
	Elapsed   time.Duration
	Err       error
}

// Summary collects the results of one import run.
type Summary struct {
	// number of importable files found before the run started
	Total   int
	Results []FileResult

	// remote folders created (or, in a dry run, that would have been), sorted
	CreatedFolders []string
}

func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

func (s *Summary) Failures() []FileResult {
	failed := []FileResult{}
	for _, r := range s.Results {
		if r.Outcome == Failed {
			failed = append(failed, r)
		}
	}
	return failed
}

func (s *Summary) UploadedBytes() int64 {
	var total int64
	for _, r := range s.Results {
		if r.Outcome == Uploaded {
			total += r.Size
		}
	}
	return total
}

// Status is SERVER_ERROR as soon as one file failed.
func (s *Summary) Status() exitcode.Status {
	if s.Count(Failed) > 0 {
		return exitcode.ServerError
	}
	return exitcode.OK
}
