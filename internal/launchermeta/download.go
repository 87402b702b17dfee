package launchermeta

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Download streams the artifact at url into dest. Server artifacts are tens
// of megabytes, so the body is copied without buffering it in memory. A
// non-2xx status aborts before the destination file is created; a mid-stream
// network error leaves a truncated file behind, so callers must not treat
// dest as valid unless this call succeeds. Returns the number of bytes
// written.
func (c *Client) Download(ctx context.Context, url, dest string) (int64, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	file, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	defer file.Close()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		return written, fmt.Errorf("download %s: %w", url, err)
	}
	if err := file.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", dest, err)
	}
	return written, nil
}
