package response

type DashboardStats struct {
	TotalUsers    int64          `json:"totalUsers"`
	VerifiedUsers int64          `json:"verifiedUsers"`
	AdminUsers    int64          `json:"adminUsers"`
	RecentUsers   []UserResponse `json:"recentUsers"`
}

type DashboardResponse struct {
	Success bool           `json:"success"`
	Stats   DashboardStats `json:"stats"`
}

type PaginatedResponse[T any] struct {
	Success    bool           `json:"success"`
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPaginatedResponse[T any](data []T, page, limit int, total int64, pages int) *PaginatedResponse[T] {
	return &PaginatedResponse[T]{
		Success: true,
		Data:    data,
		Pagination: PaginationMeta{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}
}
