// Package version looks up published releases and compares them with the running build.
package version

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gauravRathod674/OtakuRealm/constant"
	"github.com/gauravRathod674/OtakuRealm/filesystem"
	"github.com/gauravRathod674/OtakuRealm/where"
	"github.com/metafates/gache"
	"github.com/tidwall/gjson"
)

// ReleasesURL points at the latest published release of the project.
const ReleasesURL = "https://api.github.com/repos/gauravRathod674/OtakuRealm/releases/latest"

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the newest released version, served from a two day cache when possible.
func Latest(ctx context.Context, client *http.Client) (string, error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}

	if !expired && ver != "" {
		return ver, nil
	}

	ver, err = fetchTag(ctx, client, ReleasesURL)
	if err != nil {
		return "", err
	}

	_ = versionCacher.Set(ver)
	return ver, nil
}

func fetchTag(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", constant.App+"/"+constant.Version)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("releases: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	tag := gjson.GetBytes(body, "tag_name").String()
	if tag == "" {
		return "", errors.New("empty tag name")
	}

	if tag[0] == 'v' {
		tag = tag[1:]
	}

	return tag, nil
}
