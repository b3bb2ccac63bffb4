package models

// SummarySource attributes a summary to a stored document. Sources are
// deduplicated by (filename, course_code).
type SummarySource struct {
	Filename   string `json:"filename"`
	CourseCode string `json:"course_code"`
	Type       string `json:"type"`
	Topic      string `json:"topic"`
	Collection string `json:"collection"`
}

// Summary is the summary generation response: markdown content plus the
// documents that grounded it (empty for direct summaries).
type Summary struct {
	Content string          `json:"content"`
	Sources []SummarySource `json:"sources"`
}
