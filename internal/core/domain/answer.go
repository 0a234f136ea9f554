package domain

// Defaults used when a retrieved chunk lacks source metadata.
const (
	// UnknownSource is used in citation headers when file_name is missing.
	UnknownSource = "Unknown Source"

	// unknownDescription is the SourceInfo default for file_name and page_label.
	unknownDescription = "Unknown"
)

// SourceInfo describes where a retrieved passage came from.
// It is projected from chunk metadata and never persisted.
type SourceInfo struct {
	FileName    string `json:"file_name"`
	PageLabel   string `json:"page_label"`
	DocumentURL string `json:"document_url"`
	ProductName string `json:"product_name,omitempty"`
}

// SourceInfoFromMetadata projects chunk metadata into a SourceInfo.
// Missing file_name and page_label become "Unknown"; a missing
// document_url becomes fallbackURL. Non-string values are treated as missing.
func SourceInfoFromMetadata(meta map[string]any, fallbackURL string) SourceInfo {
	str := func(key, def string) string {
		if s, ok := meta[key].(string); ok && s != "" {
			return s
		}
		return def
	}
	return SourceInfo{
		FileName:    str(MetaFileName, unknownDescription),
		PageLabel:   str(MetaPageLabel, unknownDescription),
		DocumentURL: str(MetaDocumentURL, fallbackURL),
		ProductName: str(MetaProductName, ""),
	}
}

// Answer is the result of a query: the synthesised text and its sources,
// one per retrieved passage in rank order.
type Answer struct {
	Text             string       `json:"answer"`
	SourceNodesCount int          `json:"source_nodes_count"`
	Sources          []SourceInfo `json:"sources"`
}
