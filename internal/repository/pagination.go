package repository

import "gorm.io/gorm"

// applyPagination pageSize<=0 表示不分页，页码从 1 开始
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	return query.Limit(pageSize).Offset((max(page, 1) - 1) * pageSize)
}
