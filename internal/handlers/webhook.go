package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/payments"
)

const maxWebhookBody = 64 << 10

// PaymentReconciler handles the payment_intent events.
type PaymentReconciler interface {
	PaymentSucceeded(ctx context.Context, intent payments.Intent) (checkout.Result, error)
	PaymentFailed(ctx context.Context, intent payments.Intent) checkout.Result
}

// StripeWebhook answers 200 for handled or already reconciled events, 400
// for events it can never process and 500 when the processor should retry.
func StripeWebhook(parser payments.EventParser, reconciler PaymentReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/wh"
		defer handlePanic(c, route)

		payload, err := readBody(c, maxWebhookBody)
		if err != nil {
			respondBodyError(c, route, err)
			return
		}

		event, err := parser.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			log.Printf("[WEBHOOK] [ERROR] rejected delivery: %v", err)
			respondWithError(c, http.StatusBadRequest, route, "invalid webhook")
			return
		}

		// A started delivery runs to the end even if the processor hangs up.
		ctx := context.WithoutCancel(c.Request.Context())

		switch event.Type {
		case payments.EventPaymentSucceeded:
			if event.Intent == nil {
				respondWithError(c, http.StatusBadRequest, route, "event carries no payment intent")
				return
			}
			result, err := reconciler.PaymentSucceeded(ctx, *event.Intent)
			if err != nil {
				status := webhookErrorStatus(err)
				log.Printf("[WEBHOOK] [ERROR] %s for %s: %v", event.Type, event.Intent.ID, err)
				c.JSON(status, gin.H{"message": fmt.Sprintf("Webhook received: %s | ERROR: %v", event.Type, err)})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"message":     result.Message(event.Type),
				"orderNumber": result.Order.OrderNumber,
			})

		case payments.EventPaymentFailed:
			var intent payments.Intent
			if event.Intent != nil {
				intent = *event.Intent
			}
			result := reconciler.PaymentFailed(ctx, intent)
			c.JSON(http.StatusOK, gin.H{"message": result.Message(event.Type)})

		default:
			log.Printf("[WEBHOOK] [INFO] unhandled event %s", event.Type)
			c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Unhandled webhook received: %s", event.Type)})
		}
	}
}

func webhookErrorStatus(err error) int {
	switch {
	case errors.Is(err, checkout.ErrMissingShippingDetails),
		errors.Is(err, models.ErrMalformedSnapshot),
		errors.Is(err, checkout.ErrEmptyBag):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
