package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/session"
)

type ProductLister interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error)
}

/*
GET /products
- pagination optional: applied only when page and limit are both given
- queued flash messages are returned once
*/
func GetProducts(products ProductLister, sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		log.Printf("[%s] hit page=%s limit=%s search=%s", route, c.Query("page"), c.Query("limit"), c.Query("search"))

		filter := repository.ProductFilter{Search: strings.TrimSpace(c.Query("search"))}

		pageStr := c.Query("page")
		limitStr := c.Query("limit")
		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			filter.Page, filter.Limit = page, limit
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		list, err := products.List(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		sess := sessions.Load(c)
		messages := sess.PopMessages()
		if len(messages) > 0 {
			if err := sessions.Save(c, sess); err != nil {
				log.Println("[SESSION] [ERROR] save failed:", err)
			}
		}

		log.Printf("[%s] returning %d products", route, len(list))
		c.JSON(http.StatusOK, gin.H{"data": list, "messages": messages})
	}
}
