package domain

// EntryRef is a lightweight pointer to another entry, used for the
// related-entries footer of an entry page.
type EntryRef struct {
	Slug  string
	Title string
}

// Entry is one knowledge-base entry as served by the API. Dates are kept
// as the server's ISO 8601 strings; callers format them for display.
type Entry struct {
	Identifier  string
	Slug        string
	Title       string
	Description string
	DateCreated string
	DateUpdated string
	Related     []EntryRef
}

// Complete reports whether the entry carries the fields every screen
// depends on. Entries failing this are treated as malformed payloads.
func (e Entry) Complete() bool {
	return e.Slug != "" && e.Title != "" && e.Description != ""
}

// Bookmark is one saved entry reference as returned by the bookmarks
// endpoint.
type Bookmark struct {
	Entry string
	Slug  string
}
