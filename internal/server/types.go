package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// ProjectUpsertRequest represents a request to start tracking a project
type ProjectUpsertRequest struct {
	Name  string `json:"name"`            // Project name (lowercase slug)
	Query string `json:"query,omitempty"` // Optional search query override
}

// UpdateResponse reports the outcome of an on-demand collection run
type UpdateResponse struct {
	Project string `json:"project"` // Project that was refreshed
	Added   int    `json:"added"`   // Newly stored posts
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about post data
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
