package main

import (
	"boxoffice/src/config"
	"boxoffice/src/db"
	"boxoffice/src/models"
	"boxoffice/src/types"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func showHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/shows", func(ctx *gin.Context) {
			var shows []models.Show
			database := db.GetDb()
			err := database.
				Model(&models.Show{}).
				Where(&models.Show{Status: types.SHOW_PUBLISHED}).
				Preload("Venue").
				Preload("Performances", func(db *gorm.DB) *gorm.DB {
					return db.Where("date_time > ?", time.Now()).Order("date_time ASC")
				}).
				Order("title ASC").
				Find(&shows).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": shows, "count": len(shows)})
		}).
		GET("/shows/:id", func(ctx *gin.Context) {
			showId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var show models.Show
			database := db.GetDb()
			err = database.
				Model(&models.Show{}).
				Where(&models.Show{ID: showId}).
				Preload("Venue.SeatingLayouts").
				Preload("Performances", func(db *gorm.DB) *gorm.DB {
					return db.Order("date_time ASC")
				}).
				First(&show).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "show not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": show})
		}).
		GET("/seats-for-layout/:layoutId", func(ctx *gin.Context) {
			layoutId, err := uuid.Parse(ctx.Params.ByName("layoutId"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var layout models.SeatingLayout
			database := db.GetDb()
			err = database.
				Model(&models.SeatingLayout{}).
				Where(&models.SeatingLayout{ID: layoutId}).
				Preload("Seats", func(db *gorm.DB) *gorm.DB {
					return db.Order("row ASC, number ASC")
				}).
				First(&layout).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "seating layout not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"layout": layout,
				"seats":  layout.Seats,
			}})
		})
	return g
}

func adminShowHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/shows", func(ctx *gin.Context) {
			var body types.CreateShowRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			venueId, err := uuid.Parse(body.VenueID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			layoutId, err := uuid.Parse(body.SeatingLayoutID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			status := types.SHOW_DRAFT
			if body.Publish {
				status = types.SHOW_PUBLISHED
			}
			show := models.Show{
				Title:           body.Title,
				Slug:            slug.Make(body.Title),
				Description:     body.Description,
				Genre:           body.Genre,
				AdultPrice:      body.AdultPrice,
				ChildPrice:      body.ChildPrice,
				ConcessionPrice: body.ConcessionPrice,
				Status:          status,
				VenueID:         venueId,
				SeatingLayoutID: layoutId,
			}
			database := db.GetDb()
			if err := database.Create(&show).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					ctx.JSON(http.StatusConflict, gin.H{"error": "a show with this title already exists"})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			log.Printf("Created show [%s] (%s)\n", show.Title, show.Slug)
			ctx.JSON(http.StatusCreated, gin.H{"data": show})
		}).
		POST("/performances", func(ctx *gin.Context) {
			var body types.CreatePerformanceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dateTime, err := time.Parse(config.TIME_PARSE_FORMAT, body.DateTime)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var show models.Show
			database := db.GetDb()
			if err := database.
				Where(&models.Show{ID: body.ShowID}).
				First(&show).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "show not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			perf := models.Performance{
				DateTime:  dateTime,
				IsMatinee: body.IsMatinee,
				Notes:     body.Notes,
				ShowID:    show.ID,
			}
			if err := database.Create(&perf).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			log.Printf("Created performance for show [%s] at %s\n", show.Title, dateTime.Format(time.RFC3339))
			ctx.JSON(http.StatusCreated, gin.H{"data": perf})
		})
	return g
}
