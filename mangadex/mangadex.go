// Package mangadex provides a client for the MangaDex API, used to complete
// read history entries with a cover image and genres.
package mangadex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gauravRathod674/OtakuRealm/constant"
	"github.com/tidwall/gjson"
)

const (
	BaseURL    = "https://api.mangadex.org"
	UploadsURL = "https://uploads.mangadex.org"
)

var ErrNotFound = errors.New("manga not found on mangadex")

// Metadata is what MangaDex knows about a title.
type Metadata struct {
	CoverImageURL string   `json:"cover_image_url"`
	Genres        []string `json:"genres"`
}

type Client struct {
	http    *http.Client
	base    string
	uploads string
}

type Option func(*Client)

// WithBaseURL points the client at another API and uploads host.
func WithBaseURL(api, uploads string) Option {
	return func(c *Client) {
		c.base = api
		c.uploads = uploads
	}
}

func New(client *http.Client, opts ...Option) *Client {
	c := &Client{http: client, base: BaseURL, uploads: UploadsURL}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Metadata looks up the best match of title.
// A match without a cover still returns its genres.
func (c *Client) Metadata(ctx context.Context, title string) (Metadata, error) {
	query := url.Values{
		"title":      {title},
		"limit":      {"1"},
		"includes[]": {"cover_art"},
	}

	body, err := c.get(ctx, c.base+"/manga?"+query.Encode())
	if err != nil {
		return Metadata{}, err
	}

	if !gjson.ValidBytes(body) {
		return Metadata{}, fmt.Errorf("mangadex: invalid response body")
	}

	manga := gjson.GetBytes(body, "data.0")
	if !manga.Exists() {
		return Metadata{}, ErrNotFound
	}

	meta := Metadata{Genres: []string{}}

	manga.Get("attributes.tags").ForEach(func(_, tag gjson.Result) bool {
		if tag.Get("attributes.group").String() == "genre" {
			meta.Genres = append(meta.Genres, tag.Get("attributes.name.en").String())
		}
		return true
	})

	cover := manga.Get(`relationships.#(type=="cover_art").attributes.fileName`).String()
	if cover != "" {
		meta.CoverImageURL = fmt.Sprintf("%s/covers/%s/%s", c.uploads, manga.Get("id").String(), cover)
	}

	return meta, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constant.App+"/"+constant.Version)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mangadex: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mangadex: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mangadex response: %w", err)
	}

	return body, nil
}
