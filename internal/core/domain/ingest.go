package domain

// IngestRequest describes one ingestion run over a folder.
type IngestRequest struct {
	// Folder is scanned recursively for allow-listed files.
	Folder string

	// Collection is the vector collection to write into.
	Collection string

	// DocumentURL, when set, is attached to every new chunk.
	DocumentURL string

	// ProductName, when set, is attached to every new chunk.
	ProductName string
}

// IngestResult reports what an ingestion run did.
type IngestResult struct {
	// ChunksAdded is the number of chunks written. Zero means nothing new.
	ChunksAdded int

	// Files lists the file names that contributed chunks.
	Files []string

	// Empty lists files that produced no text. They are not written and
	// will be tried again on the next run.
	Empty []string

	// Skipped lists files ignored because another file with the same
	// name was already chosen in this run.
	Skipped []string
}

// CatalogRecord maps a file name to its catalogue metadata.
type CatalogRecord struct {
	ProductName string
	FileName    string
	DocumentURL string
}

// CatalogResult reports a catalogue metadata update.
type CatalogResult struct {
	UpdatedFiles  int
	UpdatedChunks int

	// Missing lists catalogue file names with no chunks in the collection.
	Missing []string
}
