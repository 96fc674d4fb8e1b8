package lib

import (
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

// NewStripeClient replaces the singleton with a custom client implementation.
func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// StripeConfigured reports whether checkout and refunds can be attempted at
// all; callers fail fast with a config error when it is false.
func StripeConfigured() bool {
	return os.Getenv("STRIPE_SECRET_KEY") != ""
}
