// Package launchermeta resolves version specifiers against the Mojang
// launcher metadata API and downloads server artifacts.
package launchermeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNoSuchVersion is returned when a specifier matches no manifest entry.
// Resolution never substitutes a different version.
var ErrNoSuchVersion = errors.New("given version spec does not match any Minecraft version")

// VersionSpec is a request for a version: an exact identifier, the latest
// release, or the latest snapshot. The zero value means latest release.
type VersionSpec struct {
	// ID requests this exact version. Empty means resolve an alias.
	ID string
	// Snapshot selects the latest-snapshot alias when ID is empty. Note that
	// this resolves to a release version if no snapshot has been published
	// since the latest release.
	Snapshot bool
}

// Exact returns a spec for the version with the given identifier.
func Exact(id string) VersionSpec { return VersionSpec{ID: id} }

// LatestRelease is the default spec.
var LatestRelease = VersionSpec{}

// LatestSnapshot requests the latest snapshot as reported by Mojang.
var LatestSnapshot = VersionSpec{Snapshot: true}

// Manifest is the version manifest document.
type Manifest struct {
	Latest   ManifestLatest  `json:"latest"`
	Versions []ManifestEntry `json:"versions"`
}

// ManifestLatest holds the two alias identifiers.
type ManifestLatest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// ManifestEntry is one named version and the URL of its detail document.
type ManifestEntry struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Resolve returns the entry matching spec. Aliases resolve to their named
// identifier first; the scan takes the first entry with that identifier.
func (m *Manifest) Resolve(spec VersionSpec) (*ManifestEntry, error) {
	wanted := spec.ID
	if wanted == "" {
		if spec.Snapshot {
			wanted = m.Latest.Snapshot
		} else {
			wanted = m.Latest.Release
		}
	}
	for i := range m.Versions {
		if m.Versions[i].ID == wanted {
			return &m.Versions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSuchVersion, wanted)
}

// VersionInfo is the subset of a per-version detail document this tool needs.
type VersionInfo struct {
	Downloads VersionDownloads `json:"downloads"`
}

// VersionDownloads lists the artifacts of a version.
type VersionDownloads struct {
	Server DownloadInfo `json:"server"`
}

// DownloadInfo describes one downloadable artifact.
type DownloadInfo struct {
	URL  string `json:"url"`
	Sha1 string `json:"sha1"`
	Size int64  `json:"size"`
}

// userAgent identifies this tool to the metadata API.
const userAgent = "systemd-minecraft/2.0.0"

// Client fetches launcher metadata. There is no retry: a single network
// failure propagates to the caller.
type Client struct {
	ManifestURL string
	UserAgent   string
	HTTP        *http.Client
}

// NewClient returns a client for the given manifest URL.
func NewClient(manifestURL string) *Client {
	return &Client{
		ManifestURL: manifestURL,
		UserAgent:   userAgent,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Manifest fetches and decodes the version manifest.
func (c *Client) Manifest(ctx context.Context) (*Manifest, error) {
	var manifest Manifest
	if err := c.getJSON(ctx, c.ManifestURL, &manifest); err != nil {
		return nil, fmt.Errorf("version manifest: %w", err)
	}
	return &manifest, nil
}

// VersionInfo fetches the detail document for a manifest entry.
func (c *Client) VersionInfo(ctx context.Context, entry *ManifestEntry) (*VersionInfo, error) {
	var info VersionInfo
	if err := c.getJSON(ctx, entry.URL, &info); err != nil {
		return nil, fmt.Errorf("version %s info: %w", entry.ID, err)
	}
	return &info, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return resp, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
