package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/metrics"
	authmw "github.com/Skotchmaster/marketplace/internal/middleware/auth"
)

type Deps struct {
	AccessSecret []byte

	Health     *HealthHTTP
	Auth       *AuthHTTP
	Categories *CategoryHTTP
	Catalog    *CatalogHTTP
	Reviews    *ReviewHTTP
	Cart       *CartHTTP
	Orders     *OrderHTTP
	Payments   *PaymentHTTP
	Wishlist   *WishlistHTTP
	Uploads    *UploadHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)
	e.GET("/metrics", metrics.Handler())

	requireAuth := authmw.RequireAuth(d.AccessSecret)
	seller := authmw.RequireSeller()
	admin := authmw.RequireAdmin()

	session := &authmw.AutoRefresh{
		AccessSecret:  d.AccessSecret,
		Refresh:       d.Auth.RefreshSession,
		SecureCookies: d.Auth.SecureCookies,
		SkipPrefix:    "/api/auth/",
	}
	api := e.Group("/api", session.Middleware())

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout, requireAuth)
	auth.GET("/me", d.Auth.Me, requireAuth)

	users := api.Group("/users", requireAuth)
	users.GET("/profile", d.Auth.Profile)
	users.PUT("/profile", d.Auth.UpdateProfile)

	categories := api.Group("/categories")
	categories.GET("", d.Categories.List)
	categories.GET("/tree", d.Categories.Tree)
	categories.GET("/all", d.Categories.ListAll, requireAuth, admin)
	categories.GET("/:id", d.Categories.Get)
	categories.POST("", d.Categories.Create, requireAuth, admin)
	categories.PUT("/:id", d.Categories.Update, requireAuth, admin)
	categories.DELETE("/:id", d.Categories.Delete, requireAuth, admin)

	products := api.Group("/products")
	products.GET("", d.Catalog.ListProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/featured", d.Catalog.Featured)
	products.GET("/seller/products", d.Catalog.SellerProducts, requireAuth, seller)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, requireAuth, seller)
	products.PUT("/:id", d.Catalog.UpdateProduct, requireAuth, seller)
	products.DELETE("/:id", d.Catalog.DeleteProduct, requireAuth, seller)
	products.GET("/:id/reviews", d.Reviews.List)
	products.POST("/:id/reviews", d.Reviews.Create, requireAuth)

	reviews := api.Group("/reviews", requireAuth)
	reviews.POST("/:id/helpful", d.Reviews.Helpful)
	reviews.PUT("/:id", d.Reviews.Update)
	reviews.DELETE("/:id", d.Reviews.Delete)
	reviews.PATCH("/:id/moderate", d.Reviews.Moderate, admin)

	cart := api.Group("/cart", requireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PUT("/items/:id", d.Cart.UpdateItem)
	cart.DELETE("/items/:id", d.Cart.RemoveItem)

	orders := api.Group("/orders", requireAuth)
	orders.GET("", d.Orders.ListOrders)
	orders.POST("", d.Orders.CreateOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.POST("/:id/cancel", d.Orders.CancelOrder)
	orders.PATCH("/:id/status", d.Orders.UpdateStatus, seller)
	orders.PATCH("/:id/items/:itemId", d.Orders.CorrectItem, admin)

	payments := api.Group("/payments", requireAuth)
	payments.POST("/create-order", d.Payments.CreateOrder)
	payments.POST("/verify", d.Payments.Verify)
	payments.POST("/:id/refund", d.Payments.Refund, admin)

	wishlist := api.Group("/wishlist", requireAuth)
	wishlist.GET("", d.Wishlist.List)
	wishlist.POST("", d.Wishlist.Add)
	wishlist.PUT("/:id", d.Wishlist.Update)
	wishlist.DELETE("/:id", d.Wishlist.Remove)

	upload := api.Group("/upload")
	upload.POST("/image", d.Uploads.Image)
	upload.POST("/images", d.Uploads.Images)
	upload.POST("/document", d.Uploads.Document)
	upload.POST("/product-images", d.Uploads.ProductImages, requireAuth)
	upload.POST("/avatar", d.Uploads.Avatar, requireAuth)
	upload.DELETE("/file/*", d.Uploads.DeleteFile, requireAuth)
	upload.GET("/file/*", d.Uploads.FileMetadata, requireAuth)
}
