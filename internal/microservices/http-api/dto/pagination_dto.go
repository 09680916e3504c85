package dto

// InboxQuery: query string of GET /notifications
type InboxQuery struct {
	IsRead   *bool  `form:"is_read"`
	Type     string `form:"notification_type" binding:"omitempty,oneof=system business reminder announcement"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// Offset of the first row on the requested page.
func (q InboxQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// ListQuery: skip/limit paging used by the admin listing
type ListQuery struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}
