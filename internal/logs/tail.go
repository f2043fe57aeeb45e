package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const followPollInterval = 250 * time.Millisecond

// Options control how much of the log is printed and whether Tail keeps
// waiting for more.
type Options struct {
	// Lines caps the initial backlog; 0 prints the whole file.
	Lines  int
	Follow bool
}

// Tail writes the last Options.Lines lines of the file at path to out,
// returning how many lines it printed. With Follow set it keeps polling for
// appended lines until ctx is canceled. A missing file is not an error: the
// daemon may simply not have logged yet.
func Tail(ctx context.Context, path string, opts Options, out io.Writer) (int, error) {
	lines, offset, err := readBacklog(path, opts.Lines)
	if err != nil {
		return 0, err
	}
	printed := 0
	for _, line := range lines {
		fmt.Fprintln(out, line)
		printed++
	}
	if !opts.Follow {
		return printed, nil
	}

	ticker := time.NewTicker(followPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return printed, nil
		case <-ticker.C:
		}
		lines, offset, err = readForward(path, offset)
		if err != nil {
			return printed, err
		}
		for _, line := range lines {
			fmt.Fprintln(out, line)
			printed++
		}
	}
}

func readBacklog(path string, limit int) ([]string, int64, error) {
	if limit <= 0 {
		return readForward(path, 0)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]string, limit)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

func readForward(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, offset, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	// The file shrank (rotation or truncation): skip to its new end rather
	// than replaying from an offset that no longer exists.
	if offset < 0 || offset > info.Size() {
		offset = info.Size()
	}

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, offset, fmt.Errorf("read log file: %w", err)
	}

	newOffset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, offset, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, newOffset, nil
}
