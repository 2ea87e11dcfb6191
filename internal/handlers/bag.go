package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/session"
)

const maxBagBody = 16 << 10

/*
GET /bag
- priced contents of the session bag plus queued messages
*/
func GetBag(sessions *session.Store, pricer *checkout.Pricer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bag"
		defer handlePanic(c, route)

		sess := sessions.Load(c)
		messages := sess.PopMessages()
		if err := sessions.Save(c, sess); err != nil {
			log.Println("[SESSION] [ERROR] save failed:", err)
		}

		if len(sess.Bag) == 0 {
			c.JSON(http.StatusOK, gin.H{"bag": nil, "messages": messages})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		summary, err := pricer.Price(ctx, sess.Bag)
		if err != nil && !errors.Is(err, checkout.ErrProductNotFound) {
			respondWithError(c, http.StatusInternalServerError, route, "could not price bag")
			return
		}
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"bag": nil, "error": err.Error(), "messages": messages})
			return
		}

		c.JSON(http.StatusOK, gin.H{"bag": summary, "messages": messages})
	}
}

/*
PUT /bag
- body is a bag snapshot, e.g. {"42":2,"7":{"items_by_size":{"M":1}}}
- {} empties the bag
*/
func PutBag(sessions *session.Store, pricer *checkout.Pricer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /bag"
		defer handlePanic(c, route)

		body, err := readBody(c, maxBagBody)
		if err != nil {
			respondBodyError(c, route, err)
			return
		}

		bag, err := models.DecodeBag(string(body))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		sess := sessions.Load(c)
		var summary *checkout.BagSummary
		if len(bag) > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
			defer cancel()

			priced, err := pricer.Price(ctx, bag)
			if errors.Is(err, checkout.ErrProductNotFound) {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "could not price bag")
				return
			}
			summary = &priced
		}

		sess.Bag = bag
		err = sessions.Save(c, sess)
		if errors.Is(err, session.ErrTooLarge) {
			respondWithError(c, http.StatusRequestEntityTooLarge, route, "bag is too large to keep in the session")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "could not save bag")
			return
		}
		c.JSON(http.StatusOK, gin.H{"bag": summary})
	}
}
