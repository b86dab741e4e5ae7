package util

import (
	"strconv"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ParsePagination 解析分页查询参数并钳制到合法范围
// page < 1 归一为 1；limit 超出 [1,100] 时回落到默认值 10。
func ParsePagination(pageStr, limitStr string) (page, limit int) {
	page, _ = strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(limitStr)
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return page, limit
}
