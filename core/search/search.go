package search

import "strings"

// Doc is one searchable row of a track list.
type Doc struct {
	TrackID  int64
	Title    string
	Artist   string
	Username string
}

// Index filters a track list for a query. The in-memory implementation
// mirrors the fetch-all-then-filter pattern; callers only see this interface
// so a server-side query could replace it without touching them.
type Index interface {
	Search(query string) []Doc
}

// memoryIndex is a case-insensitive substring matcher over an in-memory
// snapshot of the list, acceptable at small scale.
type memoryIndex struct {
	docs []Doc
}

// NewMemoryIndex builds an index over docs. Document order is preserved in
// results.
func NewMemoryIndex(docs []Doc) Index {
	idx := &memoryIndex{docs: make([]Doc, len(docs))}
	copy(idx.docs, docs)
	return idx
}

// Search returns the documents matching the query in original order. An
// empty or whitespace-only query returns the full list.
func (idx *memoryIndex) Search(query string) []Doc {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]Doc, len(idx.docs))
		copy(out, idx.docs)
		return out
	}

	out := make([]Doc, 0)
	for _, d := range idx.docs {
		if strings.Contains(strings.ToLower(d.Title), q) ||
			strings.Contains(strings.ToLower(d.Artist), q) ||
			strings.Contains(strings.ToLower(d.Username), q) {
			out = append(out, d)
		}
	}
	return out
}
