package history

import (
	"fmt"
	"strings"
	"time"
)

// WatchEntry is one watched episode.
type WatchEntry struct {
	ID            string    `json:"id"`
	AnimeTitle    string    `json:"anime_title"`
	EpisodeNumber int       `json:"episode_number"`
	CoverImageURL string    `json:"cover_image_url"`
	WatchURL      string    `json:"watch_url"`
	ContentType   string    `json:"content_type"`
	Genres        []string  `json:"genres"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (w *WatchEntry) String() string {
	return fmt.Sprintf("%s : episode %d", w.AnimeTitle, w.EpisodeNumber)
}

func (w *WatchEntry) same(title string, episode int) bool {
	return strings.EqualFold(w.AnimeTitle, title) && w.EpisodeNumber == episode
}

// ReadEntry is the progress through one manga chapter.
type ReadEntry struct {
	ID            string    `json:"id"`
	MangaTitle    string    `json:"manga_title"`
	ChapterName   string    `json:"chapter_name"`
	CoverImageURL string    `json:"cover_image_url"`
	ReadURL       string    `json:"read_url"`
	TotalPages    int       `json:"total_pages"`
	LastReadPage  int       `json:"last_read_page"`
	Genres        []string  `json:"genres"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r *ReadEntry) String() string {
	return fmt.Sprintf("%s : %s (%d / %d)", r.MangaTitle, r.ChapterName, r.LastReadPage, r.TotalPages)
}

// Unfinished reports whether the chapter was left before its last page.
func (r *ReadEntry) Unfinished() bool {
	return r.LastReadPage < r.TotalPages
}

func (r *ReadEntry) same(title, chapter string) bool {
	return strings.EqualFold(r.MangaTitle, title) && strings.EqualFold(r.ChapterName, chapter)
}

// book is everything stored for one user.
type book struct {
	Watch []*WatchEntry `json:"watch"`
	Read  []*ReadEntry  `json:"read"`
}
