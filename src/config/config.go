package config

import (
	"fmt"
	"os"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// CURRENCY is the venue currency; Stripe amounts are minor units of this.
const CURRENCY = "gbp"

// SEAT_HOLD_TTL is how long a PENDING booking keeps its seats reserved
// before the sweep releases them.
const SEAT_HOLD_TTL = 30 * time.Minute

// HOLD_SWEEP_INTERVAL is how often expired PENDING holds are cancelled.
const HOLD_SWEEP_INTERVAL = 1 * time.Minute

const BOOKING_NUMBER_PREFIX = "BK"
