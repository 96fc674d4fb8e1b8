package main

import (
	"boxoffice/src/db"
	"boxoffice/src/types"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB         *gorm.DB
	Mock       *sqlmock.Sqlmock
	AdminToken *string
	StaffToken *string
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
	}

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = &mock

	adminToken, err := generateJWT("admin@example.com", types.ROLE_ADMIN)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.AdminToken = &adminToken

	staffToken, err := generateJWT("volunteer@example.com", types.ROLE_VOLUNTEER)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.StaffToken = &staffToken
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestBookingValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	bookingHandlers(apiv1)

	s.Run("Should reject a booking without seats", func() {
		w := httptest.NewRecorder()
		reqBody := map[string]any{
			"performanceId": uuid.NewString(),
			"customer": map[string]any{
				"email": "someone@example.com",
			},
			"seats": []any{},
		}
		sbody, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.Get(string(rbytes), "error").String()
		assert.NotEmpty(s.T(), errMsg)
	})

	s.Run("Should reject an unknown ticket type", func() {
		w := httptest.NewRecorder()
		reqBody := map[string]any{
			"performanceId": uuid.NewString(),
			"customer": map[string]any{
				"email": "someone@example.com",
			},
			"seats": []any{
				map[string]any{"seatId": uuid.NewString(), "ticketType": "VIP"},
			},
		}
		sbody, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a customer without an email", func() {
		w := httptest.NewRecorder()
		reqBody := map[string]any{
			"performanceId": uuid.NewString(),
			"customer":      map[string]any{"firstName": "Alex"},
			"seats": []any{
				map[string]any{"seatId": uuid.NewString(), "ticketType": "ADULT"},
			},
		}
		sbody, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a malformed booking id", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a malformed performance id", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/booked-seats/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestCheckoutWithoutProvider() {
	os.Unsetenv("STRIPE_SECRET_KEY")

	router := setupRouter()
	apiv1 := apiv1Group(router)
	paymentHandlers(apiv1)

	w := httptest.NewRecorder()
	reqBody := map[string]any{
		"performanceId": uuid.NewString(),
		"customer": map[string]any{
			"email": "someone@example.com",
		},
		"seats": []any{
			map[string]any{"seatId": uuid.NewString(), "ticketType": "ADULT"},
		},
	}
	sbody, _ := json.Marshal(&reqBody)
	req, _ := http.NewRequest("POST", "/api/v1/payments/checkout", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 500, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	errMsg := gjson.Get(string(rbytes), "error").String()
	assert.Contains(s.T(), errMsg, "not configured")
}

func (s *TestSuite) TestWebhookRejections() {
	router := setupRouter()
	stripeWebhookRoute(router)

	s.Run("Should refuse webhooks when no secret is configured", func() {
		os.Unsetenv("STRIPE_WEBHOOK_SECRET")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/webhook/stripe", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 503, w.Code)
	})

	s.Run("Should refuse an unsigned payload", func() {
		os.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
		defer os.Unsetenv("STRIPE_WEBHOOK_SECRET")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/webhook/stripe", strings.NewReader(`{"type":"checkout.session.completed"}`))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should refuse a forged signature", func() {
		os.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
		defer os.Unsetenv("STRIPE_WEBHOOK_SECRET")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/webhook/stripe", strings.NewReader(`{"type":"payment_intent.succeeded"}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestAdminAuth() {
	router := setupRouter()
	admin := adminGroup(router)
	refundHandlers(admin)
	adminBookingHandlers(admin)

	s.Run("Should reject a request without a token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/admin/bookings", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject a token with an unprivileged role", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/admin/bookings", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *s.StaffToken))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.Get(string(rbytes), "error").String()
		assert.NotEmpty(s.T(), errMsg)
	})

	s.Run("Should reject a refund with no booking id", func() {
		w := httptest.NewRecorder()
		reqBody := map[string]any{}
		sbody, _ := json.Marshal(&reqBody)
		req, _ := http.NewRequest("POST", "/api/v1/admin/refunds", strings.NewReader(string(sbody)))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *s.AdminToken))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a malformed check-in id", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/admin/bookings/not-a-uuid/checkin", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *s.AdminToken))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestCheckoutMetadataRoundTrip() {
	md := map[string]string{
		"bookingId":         uuid.NewString(),
		"showId":            uuid.NewString(),
		"performanceId":     uuid.NewString(),
		"seatsJson":         `[{"seatId":"` + uuid.NewString() + `","ticketType":"ADULT"}]`,
		"customerEmail":     "someone@example.com",
		"customerFirstName": "Alex",
		"customerLastName":  "Doe",
	}
	meta := checkoutMetadataFrom(md)

	assert.Equal(s.T(), md["bookingId"], meta.BookingID)
	assert.Equal(s.T(), md["performanceId"], meta.PerformanceID)
	assert.Equal(s.T(), md["seatsJson"], meta.SeatsJSON)
	assert.Equal(s.T(), md["customerEmail"], meta.CustomerEmail)
}

func TestRunner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(TestSuite))
}
