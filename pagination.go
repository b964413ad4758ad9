package givehub

// Page is one window over an ordered campaign collection, produced
// either by slicing a client-side list or by wrapping a server-side
// search result.
type Page struct {
	Items      []Campaign
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// Paginate slices an already-ordered campaign list into the requested
// page. TotalPages is never below 1 and the requested page is clamped
// into [1, TotalPages], so out-of-range requests return the nearest
// valid page rather than an empty one. A non-positive page size is
// treated as 1.
func Paginate(items []Campaign, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 1
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:      items[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// PageOf wraps a server-paginated search response as a Page without
// re-slicing: total, page, and size come from the backend, and only
// TotalPages is derived locally.
func PageOf(resp SearchResponse) Page {
	size := resp.Size
	if size < 1 {
		size = 1
	}

	totalPages := (resp.Total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	return Page{
		Items:      resp.Data,
		Page:       resp.Page,
		PageSize:   resp.Size,
		Total:      resp.Total,
		TotalPages: totalPages,
	}
}
