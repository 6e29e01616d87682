package pipeline

import "moviescout/discoveryservice/internal/domain"

// pageWindow is one pagination slice over a fully sorted result set, plus the
// derived counters the response surfaces. The page number is clamped into
// [1, totalPages] before slicing, so a request past the end answers the last
// page instead of an empty one.
type pageWindow struct {
	Results    []domain.EnrichedResult
	Page       int
	TotalCount int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

func paginate(results []domain.EnrichedResult, page, perPage int) pageWindow {
	if perPage < 1 {
		perPage = 1
	}
	total := len(results)

	totalPages := 1
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	if page < 1 {
		page = 1
	}
	if total > 0 && page > totalPages {
		page = totalPages
	}
	if total == 0 {
		page = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	var slice []domain.EnrichedResult
	if total > 0 && start < total {
		if end > total {
			end = total
		}
		slice = results[start:end]
	}

	return pageWindow{
		Results:    slice,
		Page:       page,
		TotalCount: total,
		TotalPages: totalPages,
		HasPrev:    page > 1 && total > 0,
		HasNext:    start+perPage < total,
	}
}
