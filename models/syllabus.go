package models

// SyllabusTopic is a single unit of a syllabus. Topics without content do not
// produce knowledge base documents.
type SyllabusTopic struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// Syllabus carries the fields of a tutoring syllabus the ingestion pipeline
// needs to derive knowledge base documents from. The full syllabus record
// (schedule, progress tracking) lives with the tutoring application.
type Syllabus struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Topics      []SyllabusTopic `json:"topics"`
	Tags        []string        `json:"tags,omitempty"`
}
