// Package content reads the generated article corpus: daily editions, full
// article text, the archive index and the preset feed list.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"

	"dailybit/internal/content/models"
	"dailybit/pkg/platform/sentinel"
)

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateFilePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.json$`)
	hexIDPattern    = regexp.MustCompile(`^[a-fA-F0-9]+$`)
)

const (
	articlesDir = "articles"
	fullTextDir = "article-content"
)

// ValidDate reports whether s is a YYYY-MM-DD edition date.
func ValidDate(s string) bool { return datePattern.MatchString(s) }

// ValidID reports whether s is a hex article ID.
func ValidID(s string) bool { return hexIDPattern.MatchString(s) }

// Corpus reads content files from a filesystem root.
type Corpus struct {
	fsys fs.FS
}

// New creates a Corpus over fsys.
func New(fsys fs.FS) *Corpus {
	return &Corpus{fsys: fsys}
}

// Open creates a Corpus over the directory dir.
func Open(dir string) *Corpus {
	return New(os.DirFS(dir))
}

// Latest returns the most recent edition.
func (c *Corpus) Latest() (*models.Articles, error) {
	var out models.Articles
	if err := c.readJSON(path.Join(articlesDir, "latest.json"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ByDate returns the edition for date. Malformed dates are not found.
func (c *Corpus) ByDate(date string) (*models.Articles, error) {
	if !ValidDate(date) {
		return nil, sentinel.ErrNotFound
	}
	var out models.Articles
	if err := c.readJSON(path.Join(articlesDir, date+".json"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Content returns the full text of article articleID.
func (c *Corpus) Content(articleID string) (*models.ArticleContent, error) {
	if !ValidID(articleID) {
		return nil, sentinel.ErrNotFound
	}
	var out models.ArticleContent
	if err := c.readJSON(path.Join(fullTextDir, articleID+".json"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Archive returns the archive index. Older indexes name the list "digests".
func (c *Corpus) Archive() (*models.Archive, error) {
	var raw struct {
		Entries []models.ArchiveEntry `json:"entries"`
		Digests []models.ArchiveEntry `json:"digests"`
	}
	err := c.readJSON("index.json", &raw)
	if errors.Is(err, sentinel.ErrNotFound) {
		return &models.Archive{Entries: []models.ArchiveEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := raw.Entries
	if entries == nil {
		entries = raw.Digests
	}
	if entries == nil {
		entries = []models.ArchiveEntry{}
	}
	return &models.Archive{Entries: entries}, nil
}

// Feeds returns the preset feed list.
func (c *Corpus) Feeds() (*models.Feeds, error) {
	var out models.Feeds
	if err := c.readJSON("feeds.json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dates lists edition dates, newest first.
func (c *Corpus) Dates() ([]string, error) {
	entries, err := fs.ReadDir(c.fsys, articlesDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !dateFilePattern.MatchString(e.Name()) {
			continue
		}
		dates = append(dates, strings.TrimSuffix(e.Name(), ".json"))
	}
	slices.Sort(dates)
	slices.Reverse(dates)
	return dates, nil
}

func (c *Corpus) readJSON(name string, dst any) error {
	data, err := fs.ReadFile(c.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
