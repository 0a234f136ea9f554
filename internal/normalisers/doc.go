// Package normalisers provides the Normaliser implementations that turn raw
// files into labelled pages of text, and the Registry that dispatches on
// file extension.
//
// PDF pages are labelled with their 1-based page number and XLSX pages with
// their sheet name. DOCX, Markdown and plain text produce one unlabelled page.
package normalisers
