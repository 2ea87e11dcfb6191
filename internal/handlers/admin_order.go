package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

/*
GET /admin/api/orders
- Pagination: page (default 1) + limit (default 20)
- response: data + pagination
*/
func GetOrders(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		list, total, err := orders.List(ctx, page, limit)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Orders could not be fetched")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": list,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		})
	}
}
