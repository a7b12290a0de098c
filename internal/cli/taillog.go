package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// TailLog streams path to w, following new writes until ctx is cancelled
// when follow is true. Trimmed from devops/log.Manager's multi-service Tail
// to the single-file case: almd writes one structured log stream, not one
// file per service.
func TailLog(ctx context.Context, path string, follow bool, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}

	if !follow {
		return nil
	}

	buf := make([]byte, 4096)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		n, _ := f.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
		}
	}
}
