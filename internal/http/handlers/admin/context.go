package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseIDParam 解析路径中的数字主键
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
