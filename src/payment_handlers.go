package main

import (
	"boxoffice/src/lib"
	"boxoffice/src/types"
	"boxoffice/src/utils"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/checkout", func(ctx *gin.Context) {
			if !lib.StripeConfigured() {
				respondError(ctx, fmt.Errorf("payment processing is not configured: %w", types.ErrConfig))
				return
			}
			var body types.CreateCheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			perf, err := utils.GetPerformanceWithShow(body.PerformanceID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			prices, totalMinor := utils.ResolveSeatPrices(perf.Show, body.Seats)
			if totalMinor <= 0 {
				respondError(ctx, fmt.Errorf("calculated total is zero: %w", types.ErrInvalidRequest))
				return
			}

			// The hold is written before the redirect so the seats cannot be
			// sold twice while the customer sits on the Stripe page.
			reservation := types.CreateBookingRequestBody{
				PerformanceID: body.PerformanceID,
				Customer:      body.Customer,
				Seats:         body.Seats,
			}
			booking, err := utils.CreateReservation(&reservation, prices, totalMinor)
			if err != nil {
				respondError(ctx, err)
				return
			}

			url, sessionId, err := utils.CreateStripeCheckout(&body, booking, perf.Show, perf, totalMinor)
			if err != nil {
				log.Printf("[stripe] error creating checkout session for booking [%s]: %s\n", booking.BookingNumber, err.Error())
				respondError(ctx, err)
				return
			}
			log.Printf("[stripe] created checkout session [%s] for booking [%s]\n", *sessionId, booking.BookingNumber)
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"url":       url,
				"sessionId": sessionId,
				"bookingId": booking.ID,
			}})
		})
	return g
}
