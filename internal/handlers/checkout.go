package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repository"
	"storefront/internal/session"
)

// OrderReader is the read side of the order repository.
type OrderReader interface {
	FindExact(ctx context.Context, criteria models.OrderCriteria) (models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (models.Order, error)
	List(ctx context.Context, page, limit int64) ([]models.Order, int64, error)
}

type CheckoutDeps struct {
	Sessions        *session.Store
	Pricer          *checkout.Pricer
	Initiator       *checkout.Initiator
	Materializer    *checkout.Materializer
	Orders          OrderReader
	StripePublicKey string
	Currency        string
}

/* =========================
   REQUEST DTOs
========================= */

type checkoutForm struct {
	FullName       string `json:"fullName" form:"fullName" binding:"required,max=50"`
	Email          string `json:"email" form:"email" binding:"required,email,max=254"`
	PhoneNumber    string `json:"phoneNumber" form:"phoneNumber" binding:"required,max=20"`
	Country        string `json:"country" form:"country" binding:"required,iso3166_1_alpha2"`
	Postcode       string `json:"postcode" form:"postcode" binding:"required,max=20"`
	TownOrCity     string `json:"townOrCity" form:"townOrCity" binding:"required,max=40"`
	StreetAddress1 string `json:"streetAddress1" form:"streetAddress1" binding:"required,max=80"`
	StreetAddress2 string `json:"streetAddress2" form:"streetAddress2" binding:"max=80"`
	County         string `json:"county" form:"county" binding:"max=80"`
	ClientSecret   string `json:"clientSecret" form:"clientSecret" binding:"required"`
	SaveInfo       bool   `json:"saveInfo" form:"saveInfo"`
}

func (f checkoutForm) contact() models.Contact {
	return models.Contact{
		FullName:    strings.TrimSpace(f.FullName),
		Email:       strings.TrimSpace(f.Email),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
		Country:     strings.ToUpper(strings.TrimSpace(f.Country)),
		Postcode:    strings.TrimSpace(f.Postcode),
		TownOrCity:  strings.TrimSpace(f.TownOrCity),
		Street1:     strings.TrimSpace(f.StreetAddress1),
		Street2:     models.Optional(f.StreetAddress2),
		County:      models.Optional(f.County),
	}
}

type cacheCheckoutRequest struct {
	ClientSecret string `json:"clientSecret" form:"clientSecret" binding:"required"`
	SaveInfo     bool   `json:"saveInfo" form:"saveInfo"`
	Email        string `json:"email" form:"email"`
}

const (
	bagPath      = "/bag"
	emptyBagText = "There's nothing in your bag at the moment"
	missingText  = "One of the products in your bag wasn't found in our database. Please call us for assistance!"
)

/* =========================
   GET /checkout
========================= */

func ShowCheckout(deps CheckoutDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /checkout"
		defer handlePanic(c, route)

		sess := deps.Sessions.Load(c)
		if len(sess.Bag) == 0 {
			log.Printf("[%s] %v", route, checkout.ErrEmptyBag)
			redirectWithMessage(c, deps.Sessions, sess, session.LevelError, emptyBagText, bagPath)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		summary, err := deps.Pricer.Price(ctx, sess.Bag)
		if errors.Is(err, checkout.ErrProductNotFound) {
			redirectWithMessage(c, deps.Sessions, sess, session.LevelError, missingText, bagPath)
			return
		}
		if err != nil {
			log.Printf("[%s] pricing failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "could not price bag")
			return
		}

		clientSecret, intentID, err := deps.Initiator.Start(ctx, summary.GrandTotal, deps.Currency)
		if err != nil {
			log.Printf("[%s] intent creation failed: %v", route, err)
			respondWithError(c, http.StatusBadGateway, route, "payment processor unavailable")
			return
		}
		log.Printf("[CHECKOUT] [INFO] intent %s opened for %s", intentID, summary.GrandTotal.StringFixed(2))

		if deps.StripePublicKey == "" {
			sess.AddMessage(session.LevelInfo, "Stripe public key is missing. Did you forget to set it in your environment?")
		}
		messages := sess.PopMessages()
		if err := deps.Sessions.Save(c, sess); err != nil {
			log.Println("[SESSION] [ERROR] save failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"stripePublicKey": deps.StripePublicKey,
			"clientSecret":    clientSecret,
			"bag":             summary,
			"saveInfo":        sess.SaveInfo,
			"messages":        messages,
		})
	}
}

/* =========================
   POST /checkout/cache_checkout_data
========================= */

func CacheCheckoutData(deps CheckoutDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/cache_checkout_data"
		defer handlePanic(c, route)

		sess := deps.Sessions.Load(c)
		fail := func(err error) {
			log.Printf("[%s] %v", route, err)
			sess.AddMessage(session.LevelError, "Sorry, your payment cannot be processed right now. Please try again later.")
			if err := deps.Sessions.Save(c, sess); err != nil {
				log.Println("[SESSION] [ERROR] save failed:", err)
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}

		var req cacheCheckoutRequest
		if err := c.ShouldBind(&req); err != nil {
			fail(err)
			return
		}

		if len(sess.Bag) == 0 {
			fail(checkout.ErrEmptyBag)
			return
		}
		snapshot, err := sess.Bag.Encode()
		if err != nil {
			fail(err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		err = deps.Initiator.AttachMetadata(ctx, req.ClientSecret, snapshot, req.SaveInfo, req.Email, c.GetString(middleware.UsernameKey))
		if err != nil {
			fail(err)
			return
		}

		c.Status(http.StatusOK)
	}
}

/* =========================
   POST /checkout
========================= */

func SubmitCheckout(deps CheckoutDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout"
		defer handlePanic(c, route)

		sess := deps.Sessions.Load(c)
		if len(sess.Bag) == 0 {
			redirectWithMessage(c, deps.Sessions, sess, session.LevelError, emptyBagText, bagPath)
			return
		}

		var form checkoutForm
		if err := c.ShouldBind(&form); err != nil {
			log.Printf("[%s] %v: %v", route, checkout.ErrFormInvalid, err)
			form.ClientSecret = ""
			respondValidationError(c, err, form)
			return
		}

		pid := payments.IntentIDFromClientSecret(form.ClientSecret)
		if pid == "" {
			log.Printf("[%s] %v: %v", route, checkout.ErrFormInvalid, checkout.ErrMissingClientToken)
			form.ClientSecret = ""
			respondFormErrors(c, map[string]string{"clientSecret": "clientSecret is invalid"}, form)
			return
		}

		snapshot, err := sess.Bag.Encode()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "could not read bag")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		summary, err := deps.Pricer.Price(ctx, sess.Bag)
		if errors.Is(err, checkout.ErrProductNotFound) {
			redirectWithMessage(c, deps.Sessions, sess, session.LevelError, missingText, bagPath)
			return
		}
		if err != nil {
			log.Printf("[%s] pricing failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "could not price bag")
			return
		}

		details := checkout.OrderDetails{
			Contact:     form.contact(),
			GrandTotal:  summary.GrandTotal,
			OriginalBag: snapshot,
			PID:         pid,
		}

		order, err := deps.Materializer.Materialize(ctx, details, sess.Bag)
		if errors.Is(err, repository.ErrDuplicateOrder) {
			// The webhook stored this checkout first.
			order, err = deps.Orders.FindExact(ctx, models.OrderCriteria{
				Contact:     details.Contact,
				GrandTotal:  details.GrandTotal,
				OriginalBag: details.OriginalBag,
				StripePID:   details.PID,
			})
		}
		if errors.Is(err, checkout.ErrProductNotFound) {
			redirectWithMessage(c, deps.Sessions, sess, session.LevelError, missingText, bagPath)
			return
		}
		if err != nil {
			log.Printf("[%s] materialization failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "order could not be created")
			return
		}

		log.Printf("[CHECKOUT] [INFO] order %s created for %s", order.OrderNumber, details.PID)
		sess.SaveInfo = form.SaveInfo
		if err := deps.Sessions.Save(c, sess); err != nil {
			log.Println("[SESSION] [ERROR] save failed:", err)
		}
		c.Redirect(http.StatusSeeOther, "/checkout/success/"+order.OrderNumber)
	}
}

/* =========================
   GET /checkout/success/:orderNumber
========================= */

func CheckoutSuccess(deps CheckoutDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /checkout/success/:orderNumber"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := deps.Orders.GetByNumber(ctx, c.Param("orderNumber"))
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		sess := deps.Sessions.Load(c)
		sess.Bag = nil
		sess.AddMessage(session.LevelSuccess, "Order successfully processed! Your order number is "+
			order.OrderNumber+". A confirmation email will be sent to "+order.Contact.Email+".")
		messages := sess.PopMessages()
		if err := deps.Sessions.Save(c, sess); err != nil {
			log.Println("[SESSION] [ERROR] save failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"order":    order,
			"messages": messages,
		})
	}
}
