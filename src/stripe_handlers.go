package main

import (
	"boxoffice/src/types"
	"boxoffice/src/utils"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func checkoutMetadataFrom(md map[string]string) types.CheckoutMetadata {
	return types.CheckoutMetadata{
		BookingID:         md["bookingId"],
		ShowID:            md["showId"],
		PerformanceID:     md["performanceId"],
		SeatsJSON:         md["seatsJson"],
		CustomerEmail:     md["customerEmail"],
		CustomerFirstName: md["customerFirstName"],
		CustomerLastName:  md["customerLastName"],
	}
}

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		if whsecret == "" {
			log.Println("[stripe] STRIPE_WEBHOOK_SECRET not set, rejecting webhook")
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			var cs stripe.CheckoutSession
			err := json.Unmarshal(event.Data.Raw, &cs)
			if err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			log.Printf("[CheckoutSession] ID: %s %s\n", cs.ID, cs.Status)
			if cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
				// Delayed payment methods settle via payment_intent.succeeded.
				break
			}
			var paymentIntentId string
			if cs.PaymentIntent != nil {
				paymentIntentId = cs.PaymentIntent.ID
			}
			if err := utils.ReconcilePayment(checkoutMetadataFrom(cs.Metadata), paymentIntentId); err != nil {
				log.Printf("[%s] Error reconciling payment: %s\n", cs.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
		case "payment_intent.succeeded":
			var pi stripe.PaymentIntent
			err := json.Unmarshal(event.Data.Raw, &pi)
			if err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			log.Printf("[PaymentIntent] ID: %s %s\n", pi.ID, pi.Status)
			if err := utils.ReconcilePayment(checkoutMetadataFrom(pi.Metadata), pi.ID); err != nil {
				log.Printf("[%s] Error reconciling payment: %s\n", pi.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
		case "checkout.session.expired":
			var cs stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			log.Printf("[CheckoutSession] ID: %s expired\n", cs.ID)
			if bookingId := cs.Metadata["bookingId"]; bookingId != "" {
				if err := utils.ReleaseHold(bookingId); err != nil {
					log.Printf("[%s] Error releasing hold: %s\n", cs.ID, err.Error())
				}
			}
		default:
			log.Printf("[StripeEvent] unhandled event type: %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}
