package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam разбирает числовой параметр пути и кладет его в контекст
// под ключом contextKey. Нечисловое значение обрывает запрос с 400,
// до обработчика такой запрос не доходит.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			c.Abort()
			return
		}
		// Обработчики достают значение через MustGet(contextKey).(uint)
		c.Set(contextKey, uint(value))
		c.Next()
	}
}
