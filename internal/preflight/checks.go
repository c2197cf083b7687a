package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"ecomigrate/internal/catalog"
	"ecomigrate/internal/changereport"
)

// BucketChecker is implemented by sinks that can verify their bucket.
type BucketChecker interface {
	CheckBucket(ctx context.Context) error
}

// CheckBucket verifies that the output bucket is reachable and accessible.
// It uses a 10-second timeout and a single attempt.
func CheckBucket(ctx context.Context, sink BucketChecker) Result {
	const name = "Output bucket"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := sink.CheckBucket(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeBucketError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess passes for a directory the process can list and
// write into.
func CheckDirectoryAccess(name, path string) Result {
	return checkPath(name, path, true, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable passes for a directory the process can list.
func CheckDirectoryReadable(name, path string) Result {
	return checkPath(name, path, true, unix.R_OK|unix.X_OK, "read ok")
}

// checkPath stats path, insists on the wanted kind and probes access with
// mode. Failures put the reason in parentheses after the path.
func checkPath(name, path string, wantDir bool, mode uint32, okNote string) Result {
	fail := func(format string, args ...any) Result {
		return Result{Name: name, Detail: path + " (error: " + fmt.Sprintf(format, args...) + ")"}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: %v", err)
	case wantDir && !info.IsDir():
		return fail("is not a directory")
	case !wantDir && info.IsDir():
		return fail("is a directory")
	}
	if err := unix.Access(path, mode); err != nil {
		return fail("insufficient permissions: %v", err)
	}
	if okNote == "" {
		return Result{Name: name, Passed: true, Detail: path}
	}
	return Result{Name: name, Passed: true, Detail: path + " (" + okNote + ")"}
}

// CheckPatchesDirectory passes when the user patch directory is absent;
// only the builtin patches apply then.
func CheckPatchesDirectory(path string) Result {
	const name = "Patches directory"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Passed: true, Detail: "not configured (builtin patches only)"}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (absent, builtin patches only)", path)}
	}
	return CheckDirectoryReadable(name, path)
}

// CheckRelease verifies that a release dataset directory holds ecoSpold2 files.
func CheckRelease(name, dir string) Result {
	if res := CheckDirectoryReadable(name, dir); !res.Passed {
		return res
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	var count int
	for _, e := range entries {
		if !e.IsDir() && catalog.IsDatasetFile(e.Name()) {
			count++
		}
	}
	if count == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no .spold or .xml datasets)", dir)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d datasets)", dir, count)}
}

// CheckFlowListing verifies that an elementary exchange listing is a
// readable file.
func CheckFlowListing(name, path string) Result {
	return checkPath(name, path, false, unix.R_OK, "")
}

// CheckChangeReport verifies that exactly one usable change report exists.
func CheckChangeReport(dir, sourceVersion, targetVersion string) Result {
	const name = "Change report"
	path, err := changereport.Find(dir, sourceVersion, targetVersion)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: filepath.Base(path)}
}

func summarizeBucketError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "bucket check timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "bucket check timed out (endpoint unreachable)"
	}
	return err.Error()
}
