package models

// Pagination describes standard list metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// BatchResult summarises a batch recomputation run.
type BatchResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Total     int `json:"total"`
}
