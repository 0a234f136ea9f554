package domain

// RawDocument is file content read from the file source before loading.
type RawDocument struct {
	// Path is the location the file was read from.
	Path string

	// Name is the base file name; it becomes the chunk file_name.
	Name string

	// Extension is the lower-cased extension without the dot, e.g. "pdf".
	Extension string

	// Content is the raw bytes.
	Content []byte
}

// Page is a labelled span of extracted text. Loaders return one page per
// PDF page or XLSX sheet; formats without pages return a single unlabelled page.
type Page struct {
	// Label is the page label, empty when the format has no pages.
	Label string

	// Text is the extracted text.
	Text string
}
