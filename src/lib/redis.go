package lib

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient replaces the singleton with a custom client implementation.
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

func BookedSeatsCacheKey(performanceId uuid.UUID) string {
	return fmt.Sprintf("booked_seats:%s", performanceId.String())
}

// InvalidateBookedSeatsCache drops the cached booked-seats response for a
// performance. Called after every booking mutation so the storefront never
// shows a stale seat map for longer than one request.
func InvalidateBookedSeatsCache(performanceId uuid.UUID) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Del(context.Background(), BookedSeatsCacheKey(performanceId)).Err(); err != nil {
		log.Printf("[redis] Error invalidating booked seats cache for %s: %s\n", performanceId, err.Error())
	}
}
