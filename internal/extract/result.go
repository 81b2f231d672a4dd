package extract

// Table is one detected table: rows of cell strings in reading order.
// Cells may be empty when a cell could not be read. Tables are never merged
// or deduplicated across pages.
type Table struct {
	Page int        `json:"page"`
	Rows [][]string `json:"rows"`
}

// StructuredData is the normalized view derived from raw extracted text.
type StructuredData struct {
	KeyValuePairs map[string]string `json:"key_value_pairs"`
	TablesCount   int               `json:"tables_count"`
	TextLength    int               `json:"text_length"`
	Lines         []string          `json:"lines"`
}

// Document is the assembled result of one pipeline run. It is immutable once
// constructed; the caller hands it to the persistence layer verbatim.
// RawText and Tables stay out of the default JSON envelope: raw text is
// served on demand and tables are served as a workbook download.
type Document struct {
	Pages          int               `json:"pages"`
	TablesCount    int               `json:"tables_count"`
	TextLength     int               `json:"text_length"`
	RawText        string            `json:"-"`
	StructuredData StructuredData    `json:"structured_data"`
	Metadata       map[string]string `json:"metadata"`
	Tables         []Table           `json:"-"`
}

// RawResult is the contract both extraction strategies produce before
// normalization. The OCR path reports one page, no tables and no metadata.
type RawResult struct {
	Text     string
	Tables   []Table
	Metadata map[string]string
	Pages    int
}
