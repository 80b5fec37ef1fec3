package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/questboard-api/internal/constants"
)

// CORS allows the embedding frontend to call the API with its session cookie.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", constants.IdentityTokenHeader, constants.DevUserHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
