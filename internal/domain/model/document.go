package model

// Document is one unit of analysis work. Exactly one of Content or
// ContentRef must be set for the document to be valid; ContentRef points
// at an object in the content store.
type Document struct {
	ID          string `json:"id"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content,omitempty"`
	ContentRef  string `json:"content_ref,omitempty"`

	// Set during validation.
	Size            int64  `json:"size,omitempty"`
	Valid           bool   `json:"valid,omitempty"`
	ValidationError string `json:"validation_error,omitempty"`
}

func (d Document) HasInlineContent() bool { return d.Content != "" }
func (d Document) HasRef() bool           { return d.ContentRef != "" }

// ChunkDocuments partitions docs into fixed-size chunks preserving order.
// Every document lands in exactly one chunk.
func ChunkDocuments(docs []Document, size int) [][]Document {
	if size <= 0 {
		size = 1
	}
	if len(docs) == 0 {
		return nil
	}
	chunks := make([][]Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		chunks = append(chunks, docs[start:end])
	}
	return chunks
}
