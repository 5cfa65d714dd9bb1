package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/middleware"
)

// Handlers groups every HTTP entry point of the server
type Handlers struct {
	Auth      *AuthHandler
	Member    *MemberHandler
	Like      *LikeHandler
	Message   *MessageHandler
	Photo     *PhotoHandler
	Admin     *AdminHandler
	Realtime  *RealtimeHandler
	WebSocket *WebSocketHandler
}

type RouterOptions struct {
	JWTSecret    string
	IsProduction bool
	CORSOrigins  []string
	ImageOrigins []string
	// AuthLimiter throttles the unauthenticated auth routes; nil disables it
	AuthLimiter *middleware.RateLimiter
}

// NewRouter wires middleware and routes
func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeadersMiddleware(opts.ImageOrigins...))
	router.Use(middleware.HSTSMiddleware(opts.IsProduction))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	public := router.Group("/api/auth")
	if opts.AuthLimiter != nil {
		public.Use(opts.AuthLimiter.Middleware())
	}
	{
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)
		public.POST("/logout", h.Auth.Logout)
		public.GET("/verify-email", h.Auth.VerifyEmail)
		public.POST("/forgot-password", h.Auth.ForgotPassword)
		public.POST("/reset-password", h.Auth.ResetPassword)
	}

	// Protected routes (require JWT)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))
	{
		protected.GET("/auth/me", h.Auth.Me)

		protected.GET("/members", h.Member.List)
		protected.PUT("/members/me", h.Member.UpdateProfile)
		protected.POST("/members/last-active", h.Member.TouchLastActive)
		protected.GET("/members/:userId", h.Member.Get)
		protected.GET("/members/:userId/photos", h.Member.Photos)

		protected.POST("/likes/:userId", h.Like.Toggle)
		protected.GET("/likes/ids", h.Like.IDs)
		protected.GET("/likes", h.Like.List)

		protected.GET("/messages", h.Message.List)
		protected.GET("/messages/unread-count", h.Message.UnreadCount)
		protected.GET("/messages/thread/:userId", h.Message.Thread)
		protected.POST("/messages/:recipientId", h.Message.Send)
		protected.DELETE("/messages/:id", h.Message.Delete)

		protected.POST("/photos", h.Photo.Upload)
		protected.POST("/photos/sign", h.Photo.Sign)
		protected.PUT("/photos/:id/main", h.Photo.SetMain)
		protected.DELETE("/photos/:id", h.Photo.Delete)

		protected.POST("/realtime/auth", h.Realtime.Authorize)

		// WebSocket connection
		protected.GET("/ws", h.WebSocket.HandleWebSocket)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(opts.JWTSecret), middleware.AdminMiddleware())
	{
		admin.GET("/users", h.Admin.GetAllUsers)
		admin.GET("/photos/unapproved", h.Admin.UnapprovedPhotos)
		admin.POST("/photos/:id/approve", h.Admin.ApprovePhoto)
		admin.POST("/photos/:id/reject", h.Admin.RejectPhoto)
	}

	return router
}
