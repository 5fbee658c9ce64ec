package models

// Article is a summarized feed item as listed in a daily file. Full text
// lives separately in ArticleContent.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Author      string   `json:"author"`
	FeedTitle   string   `json:"feed_title"`
	Category    string   `json:"category"`
	PublishedAt string   `json:"published_at"`
	SummaryZh   string   `json:"summary_zh"`
	Tags        []string `json:"tags"`
}

// ArticleContent is the full text of one article.
type ArticleContent struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Articles is one day's edition.
type Articles struct {
	Date         string    `json:"date"`
	ArticleCount int       `json:"article_count"`
	TokensUsed   int       `json:"tokens_used"`
	AIModel      string    `json:"ai_model"`
	Articles     []Article `json:"articles"`
}

// ArchiveEntry counts the articles of one published day.
type ArchiveEntry struct {
	Date         string `json:"date"`
	ArticleCount int    `json:"article_count"`
}

// Archive lists every published day.
type Archive struct {
	Entries []ArchiveEntry `json:"entries"`
}

// Feed is one preset source.
type Feed struct {
	Title    string `json:"title"`
	XMLURL   string `json:"xml_url"`
	HTMLURL  string `json:"html_url"`
	Category string `json:"category"`
}

// Feeds is the preset source list.
type Feeds struct {
	Count     int    `json:"count"`
	UpdatedAt string `json:"updated_at"`
	Feeds     []Feed `json:"feeds"`
}

// SearchResult is an article match annotated with its edition date.
type SearchResult struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	FeedTitle string   `json:"feed_title"`
	SummaryZh string   `json:"summary_zh"`
	Tags      []string `json:"tags"`
	Date      string   `json:"date"`
}

// TagCount is the number of articles carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
