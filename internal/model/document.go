package model

// Document is the extracted text of one source file, split into paragraphs.
// Page-oriented formats contribute one paragraph per non-empty line.
type Document struct {
	ID         string   `json:"id"` // file name
	Format     string   `json:"format"`
	Paragraphs []string `json:"paragraphs"`
}

// Unit is one structurally segmented part of a document, usually a statutory article.
type Unit struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Chunk is a bounded window over a unit body; it is the item that gets embedded.
// Overlap counts the leading runes shared with the previous chunk of the same unit.
type Chunk struct {
	Source   string `json:"source"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Overlap  int    `json:"overlap"`
	Text     string `json:"text"`
}
