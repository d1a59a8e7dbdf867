package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hldang/stockpile/http/controller"
	middlewares "github.com/hldang/stockpile/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api/v1/stock")
	{
		productRoutes := apiRoutes.Group("/products")
		{
			productRoutes.POST("/", ctrl.CreateProduct)
			productRoutes.GET("/", ctrl.ListProducts)
			productRoutes.GET("/:id", ctrl.GetProduct)
			productRoutes.PUT("/:id", ctrl.UpdateProduct)
			productRoutes.DELETE("/:id", ctrl.DeleteProduct)

			// Image routes (nested under product)
			productRoutes.POST("/:id/images", ctrl.BulkSaveImages)
			productRoutes.GET("/:id/images", ctrl.ListProductImages)
		}
	}
	return r
}
