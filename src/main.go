package main

import (
	"boxoffice/src/boot"
	"boxoffice/src/config"
	"boxoffice/src/middlewares"
	"boxoffice/src/types"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

const (
	apiPrefix string = "/api/v1"
)

// bookabledate rejects performance dates already in the past.
var bookableDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return time.Now().Before(datetime)
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func adminGroup(g *gin.Engine) *gin.RouterGroup {
	admin := g.Group(path.Join(apiPrefix, "admin"))
	admin.Use(middlewares.AuthMiddleware)
	admin.Use(middlewares.RequireRoles(types.ROLE_ADMIN, types.ROLE_STAFF))
	return admin
}

// respondError maps the error taxonomy to HTTP statuses. Seat conflicts
// carry the offending seat list so the client can re-select.
func respondError(ctx *gin.Context, err error) {
	if conflict, ok := types.IsSeatConflict(err); ok {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":              conflict.Error(),
			"alreadyBookedSeats": conflict.SeatIDs,
			"seatDisplays":       conflict.SeatDisplays,
		})
		return
	}
	switch {
	case errors.Is(err, types.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrInvalidRequest):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrAuth):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrConfig), errors.Is(err, types.ErrRefundFailed), errors.Is(err, types.ErrWrite):
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func generateJWT(username string, role types.UserRole) (string, error) {
	claims := types.Claims{
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()

	router := setupRouter()

	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOrigins = []string{os.Getenv("APP_HOST")}
		cc.AllowCredentials = true
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
	}

	apiv1 := apiv1Group(router)
	showHandlers(apiv1)
	bookingHandlers(apiv1)
	paymentHandlers(apiv1)
	stripeWebhookRoute(router)

	admin := adminGroup(router)
	adminBookingHandlers(admin)
	adminShowHandlers(admin)
	refundHandlers(admin)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server exited: %s\n", err.Error())
	}
}
