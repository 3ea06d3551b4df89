package models

import "time"

// NewsRecord is one AI-industry news item as stored in the news index.
type NewsRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ToolName  string    `json:"toolName"`
	Company   string    `json:"company"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// StartupRecord is one startup launch as stored in the startups index.
type StartupRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Tags        []string  `json:"tags"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Result item kinds.
const (
	ResultNews    = "news"
	ResultStartup = "startup"
)

// ResultItem is the unified shape the chat assistant renders.
type ResultItem struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Content  string    `json:"content"`
	Link     string    `json:"link"`
	Date     time.Time `json:"date"`
}

// UpsertResult reports what an upsert did to the stored document.
type UpsertResult string

const (
	UpsertCreated UpsertResult = "created"
	UpsertUpdated UpsertResult = "updated"
	UpsertNoop    UpsertResult = "noop"
)

// Changed reports whether the upsert inserted or modified a document.
func (r UpsertResult) Changed() bool {
	return r == UpsertCreated || r == UpsertUpdated
}
