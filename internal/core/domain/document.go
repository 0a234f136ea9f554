package domain

import (
	"fmt"
	"time"
)

// Metadata keys attached to every DocumentChunk.
const (
	// MetaFileName is the base name of the source file. Within a collection
	// it identifies an ingested file.
	MetaFileName = "file_name"

	// MetaFilePath is the path the file was loaded from.
	MetaFilePath = "file_path"

	// MetaPageLabel is the page (PDF) or sheet (XLSX) the text came from.
	MetaPageLabel = "page_label"

	// MetaDocumentURL is the public location of the source document.
	MetaDocumentURL = "document_url"

	// MetaProductName is the catalogue product the document belongs to.
	MetaProductName = "product_name"
)

// DocumentChunk is a unit of ingested document text paired with its
// embedding and metadata. Text and embedding never change after ingestion;
// metadata may be updated by backfill operations.
type DocumentChunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Text is the chunk's content.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// Metadata holds file_name, page_label, document_url and product_name
	// plus any loader-specific keys.
	Metadata map[string]any

	// CreatedAt is when the chunk was ingested.
	CreatedAt time.Time
}

// MetadataString returns the metadata value for key as a string.
// The boolean is false when the key is absent or empty.
// A non-string value is reported as an error.
func (c DocumentChunk) MetadataString(key string) (string, bool, error) {
	v, ok := c.Metadata[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("metadata %q has type %T, want string", key, v)
	}
	return s, s != "", nil
}

// FileName returns the chunk's file_name, or "" if unset or malformed.
func (c DocumentChunk) FileName() string {
	s, _, _ := c.MetadataString(MetaFileName)
	return s
}

// Clone returns a copy of the chunk that shares no mutable state.
func (c DocumentChunk) Clone() DocumentChunk {
	out := c
	out.Metadata = CopyMetadata(c.Metadata)
	if c.Embedding != nil {
		out.Embedding = make([]float32, len(c.Embedding))
		copy(out.Embedding, c.Embedding)
	}
	return out
}

// ScoredChunk is a chunk returned from a similarity query with its score.
// Higher scores are more similar.
type ScoredChunk struct {
	Chunk DocumentChunk
	Score float64
}

// CopyMetadata creates a shallow copy of metadata.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
