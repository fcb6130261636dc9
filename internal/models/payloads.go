package models

// These structs define the JSON payloads exchanged between the web front end
// and the HTTP Cloud Functions.

// QueryRequest is the input for the query-api function.
type QueryRequest struct {
	UserID string `json:"userId"`
	Query  string `json:"query"`
	Scope  string `json:"scope"`
}

// QueryResponse is the output of the query-api function.
type QueryResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Query     string   `json:"query"`
	Scope     string   `json:"scope"`
	Timestamp string   `json:"timestamp"`
}

// ConversationSummary is one entry in the conversation history listing.
type ConversationSummary struct {
	ID        string   `json:"id"`
	Query     string   `json:"query"`
	Scope     string   `json:"scope"`
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Timestamp string   `json:"timestamp"`
}

// UploadRequest is the input for the upload-api function. It asks for an
// upload slot for a new paper.
type UploadRequest struct {
	UserID   string   `json:"userId"`
	FileName string   `json:"fileName"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
}

// UploadResponse carries the allocated paper id and a signed PUT URL the
// client uploads the PDF bytes to.
type UploadResponse struct {
	PaperID     string `json:"paperId"`
	UploadURL   string `json:"uploadUrl"`
	StoragePath string `json:"storagePath"`
	ExpiresAt   string `json:"expiresAt"`
}
