package sort

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"runtime"
)

// trySystemSort attempts the OS-sort-backed acceleration path (§9's
// open question): when cfg.UseSystemSort is set, T is string, the
// build runs on Linux, and the "sort" binary is on PATH, it shells
// out to coreutils sort instead of the in-process gosort.Slice call
// for a fully buffered (no-spill) input, grounded on the teacher's
// getBinPaths/exec.Command subprocess-with-captured-output idiom
// (backend/press/alg_exec.go).
//
// The system binary only ever produces a byte-order (LC_ALL=C)
// ascending or descending sort; it does not consult cmp at all, so
// this path is only safe for the plain lexicographic orderings
// cmd/sort builds (strings.Compare, or its reverse). It cannot check
// the comparator itself: that rests on the caller setting
// Config.UseSystemSort only for such a cmp. ok is false whenever the
// acceleration doesn't apply or the subprocess fails, in which case
// the caller falls back to the in-process sort.
func trySystemSort[T any](ctx context.Context, items []T, reverse bool, tempDir string) (result []T, ok bool, err error) {
	if runtime.GOOS != "linux" {
		return nil, false, nil
	}
	if _, isString := any(*new(T)).(string); !isString {
		return nil, false, nil
	}
	binPath, lookErr := exec.LookPath("sort")
	if lookErr != nil {
		return nil, false, nil
	}

	in, err := os.CreateTemp(tempDir, "pipecraft-syssort-in-*")
	if err != nil {
		return nil, false, err
	}
	inPath := in.Name()
	defer os.Remove(inPath)

	w := bufio.NewWriter(in)
	for _, item := range items {
		if _, err := w.WriteString(any(item).(string)); err != nil {
			_ = in.Close()
			return nil, false, err
		}
		if err := w.WriteByte('\n'); err != nil {
			_ = in.Close()
			return nil, false, err
		}
	}
	if err := w.Flush(); err != nil {
		_ = in.Close()
		return nil, false, err
	}
	if err := in.Close(); err != nil {
		return nil, false, err
	}

	args := []string{inPath}
	if reverse {
		args = append([]string{"-r"}, args...)
	}
	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	output, err := cmd.Output()
	if err != nil {
		// A missing or sandboxed "sort" falls back to the in-process
		// path rather than failing the whole pipe.
		return nil, false, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sorted := make([]T, 0, len(items))
	for scanner.Scan() {
		sorted = append(sorted, any(scanner.Text()).(T))
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}
	return sorted, true, nil
}

// systemSortAttempt is drain()'s entry point into the acceleration
// path; it only ever handles the no-spill, fully-buffered case, since
// once a run has already spilled to disk the in-process k-way merge
// is already underway.
func systemSortAttempt[T any](ctx context.Context, cfg Config, buf []T) ([]T, bool, error) {
	if !cfg.UseSystemSort {
		return nil, false, nil
	}
	return trySystemSort(ctx, buf, cfg.Reverse, cfg.TempDir)
}
