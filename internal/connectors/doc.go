// Package connectors holds the sources documents are read from during
// ingestion. The filesystem source lists, reads and watches local folders.
package connectors
