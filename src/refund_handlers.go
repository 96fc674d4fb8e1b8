package main

import (
	"boxoffice/src/types"
	"boxoffice/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func refundHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/refunds", func(ctx *gin.Context) {
			var body types.CreateRefundRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			issuedBy := ctx.GetString("username")
			result, err := utils.IssueRefund(&body, issuedBy)
			if err != nil {
				log.Printf("[Refund] Error refunding booking %s: %s\n", body.BookingID, err.Error())
				respondError(ctx, err)
				return
			}
			log.Printf("[Refund] Issued refund [%s] for booking %s by %s (full=%t)\n", result.RefundID, body.BookingID, issuedBy, result.FullRefund)
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		})
	return g
}
