package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/repository"
)

/*
GET /orders/:orderNumber
- past confirmation for one order
*/
func GetOrderHistory(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:orderNumber"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := orders.GetByNumber(ctx, c.Param("orderNumber"))
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		message := "This is a past confirmation for order number " + order.OrderNumber +
			". A confirmation email was sent on the order date."
		c.JSON(http.StatusOK, gin.H{"order": order, "message": message})
	}
}
