package content

import (
	"slices"
	"strconv"
	"strings"

	"dailybit/internal/content/models"
	liststr "dailybit/pkg/platform/strings"
)

const (
	// MinQueryLength is the shortest accepted search query, in runes.
	MinQueryLength = 2
	// MaxSearchResults caps a search response.
	MaxSearchResults = 50
)

// ParseTags splits a comma-separated tag filter, dropping blanks and
// case-insensitive repeats.
func ParseTags(raw string) []string {
	return liststr.DedupeFold(liststr.SplitTrimmed(raw))
}

// FilterByTags returns a copy of a with only articles carrying any of tags,
// compared case-insensitively. The article count is recomputed.
func FilterByTags(a *models.Articles, tags []string) *models.Articles {
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = struct{}{}
	}
	out := *a
	out.Articles = make([]models.Article, 0, len(a.Articles))
	for _, art := range a.Articles {
		if slices.ContainsFunc(art.Tags, func(t string) bool {
			_, ok := want[strings.ToLower(t)]
			return ok
		}) {
			out.Articles = append(out.Articles, art)
		}
	}
	out.ArticleCount = len(out.Articles)
	return &out
}

// Matches reports whether art matches the lower-cased query in its title,
// summary, feed, author or any tag.
func Matches(art models.Article, query string) bool {
	for _, field := range []string{art.Title, art.SummaryZh, art.FeedTitle, art.Author} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return slices.ContainsFunc(art.Tags, func(t string) bool {
		return strings.Contains(strings.ToLower(t), query)
	})
}

// Search scans editions newest first and returns up to MaxSearchResults
// matches. Unreadable editions are skipped.
func (c *Corpus) Search(query string) ([]models.SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	dates, err := c.Dates()
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0)
	for _, date := range dates {
		edition, err := c.ByDate(date)
		if err != nil {
			continue
		}
		for _, art := range edition.Articles {
			if len(results) >= MaxSearchResults {
				return results, nil
			}
			if Matches(art, q) {
				results = append(results, models.SearchResult{
					ID:        art.ID,
					Title:     art.Title,
					URL:       art.URL,
					FeedTitle: art.FeedTitle,
					SummaryZh: art.SummaryZh,
					Tags:      art.Tags,
					Date:      date,
				})
			}
		}
	}
	return results, nil
}

// TagCounts counts tag occurrences across an edition, sorted by tag so
// hierarchical tags group together.
func TagCounts(a *models.Articles) []models.TagCount {
	counts := make(map[string]int)
	for _, art := range a.Articles {
		for _, t := range art.Tags {
			counts[t]++
		}
	}
	out := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, models.TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(out, func(a, b models.TagCount) int { return strings.Compare(a.Tag, b.Tag) })
	return out
}

// FullText renders an edition as the markdown served at /llms-full.txt.
func FullText(a *models.Articles) string {
	var b strings.Builder
	b.WriteString("# DailyBit - " + a.Date + "\n\n")
	b.WriteString(strconv.Itoa(a.ArticleCount) + " 篇文章 · AI Model: " + a.AIModel + "\n\n")
	for _, art := range a.Articles {
		b.WriteString("## " + art.Title + "\n")
		b.WriteString("- 来源: " + art.FeedTitle)
		if art.Author != "" {
			b.WriteString(" · " + art.Author)
		}
		b.WriteString("\n")
		b.WriteString("- 链接: " + art.URL + "\n")
		b.WriteString("- 标签: " + strings.Join(art.Tags, ", ") + "\n")
		b.WriteString("\n" + art.SummaryZh + "\n\n---\n\n")
	}
	return b.String()
}
