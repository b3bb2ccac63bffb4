package models

// DocumentMetadata travels with every chunk stored in a collection and
// drives retrieval filtering.
type DocumentMetadata struct {
	Filename   string `json:"filename"`
	CourseCode string `json:"course_code"`
	Type       string `json:"type"`
	Topic      string `json:"topic"`
	UserEmail  string `json:"user_email,omitempty"`
	DateAdded  string `json:"date_added"`
}

// DocumentInfo summarizes one stored document for listings.
type DocumentInfo struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	DateAdded string `json:"date_added"`
}

// CollectionInfo is the response for listing a collection's documents.
type CollectionInfo struct {
	Count     int            `json:"count"`
	Documents []DocumentInfo `json:"documents"`
}

// CollectionMetadata holds the distinct metadata values present in a
// collection, each list sorted ascending.
type CollectionMetadata struct {
	CourseCodes []string `json:"course_codes"`
	Topics      []string `json:"topics"`
	Filenames   []string `json:"filenames"`
}

// UploadResult reports the outcome of a single document upload.
type UploadResult struct {
	Message    string           `json:"message"`
	Filename   string           `json:"filename"`
	Metadata   DocumentMetadata `json:"metadata"`
	Collection string           `json:"collection"`
}

// BatchUploadResult is the response for a multipart batch upload.
type BatchUploadResult struct {
	Message string         `json:"message"`
	Details []UploadResult `json:"details"`
}

// PathUploadError records a single failed path during bulk ingestion.
type PathUploadError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// PathUploadResult is the response for upload-from-paths. Failures are
// accumulated per file so one bad path never aborts the batch.
type PathUploadResult struct {
	Message           string            `json:"message"`
	SuccessfulUploads []UploadResult    `json:"successful_uploads"`
	Errors            []PathUploadError `json:"errors"`
	Collection        string            `json:"collection"`
}

// Passage is one retrieved chunk with its metadata and source collection.
type Passage struct {
	Content    string           `json:"content"`
	Metadata   DocumentMetadata `json:"metadata"`
	Collection string           `json:"collection"`
	Score      float64          `json:"score,omitempty"`
}

// MetadataFilters narrows retrieval by document attributes. Values within
// a key are ORed, keys are ANDed.
type MetadataFilters struct {
	CourseCodes []string `json:"course_code,omitempty"`
	Topics      []string `json:"topic,omitempty"`
	Filenames   []string `json:"filename,omitempty"`
}

// IsEmpty reports whether no filter values are set.
func (f MetadataFilters) IsEmpty() bool {
	return len(f.CourseCodes) == 0 && len(f.Topics) == 0 && len(f.Filenames) == 0
}
