package dto

// totalPages computes the page count for the paginated response envelopes.
func totalPages(total int64, pageSize int) int {
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}
