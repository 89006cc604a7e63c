package blockpress

import "github.com/eringen/blockpress/content"

// ListResult is one page of published post summaries.
type ListResult struct {
	Posts      []content.PostSummary
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

type apiError struct {
	Error string `json:"error"`
}

type apiPagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type apiPostList struct {
	Posts      []content.PostSummary `json:"posts"`
	Pagination apiPagination         `json:"pagination"`
}
