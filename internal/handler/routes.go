// Package handler is the HTTP transport layer: echo handlers, request
// validation, the response envelope, and the auth middleware.
package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/opensharing/showcase/internal/service"
)

// Router registers every route on an echo instance.
type Router struct {
	auth          *AuthHandler
	users         *UserHandler
	projects      *ProjectHandler
	ratings       *RatingHandler
	comments      *CommentHandler
	tags          *TagHandler
	favorites     *FavoriteHandler
	notifications *NotificationHandler
	images        *ImageHandler
	verifier      TokenVerifier
}

// NewRouter creates a Router from the application services.
func NewRouter(
	auth *service.AuthService,
	users *service.UserService,
	projects *service.ProjectService,
	ratings *service.RatingService,
	comments *service.CommentService,
	tags *service.TagService,
	favorites *service.FavoriteService,
	notifications *service.NotificationService,
	images *service.ImageService,
	frontendURL string,
) *Router {
	return &Router{
		auth:          NewAuthHandler(auth, users, frontendURL),
		users:         NewUserHandler(users),
		projects:      NewProjectHandler(projects),
		ratings:       NewRatingHandler(ratings),
		comments:      NewCommentHandler(comments),
		tags:          NewTagHandler(tags),
		favorites:     NewFavoriteHandler(favorites),
		notifications: NewNotificationHandler(notifications),
		images:        NewImageHandler(images),
		verifier:      auth,
	}
}

// Register mounts all routes and shared middleware.
func (r *Router) Register(e *echo.Echo) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig()))

	user := RequireUser(r.verifier)
	admin := RequireAdmin()

	auth := e.Group("/auth")
	auth.POST("/login", r.auth.Login)
	auth.POST("/login_form", r.auth.LoginForm)
	auth.POST("/register", r.auth.Register)
	auth.POST("/logout", r.auth.Logout)
	auth.GET("/me", r.auth.Me, user)
	auth.GET("/:platform/authorize", r.auth.Authorize)
	auth.GET("/:platform/callback", r.auth.Callback)
	auth.POST("/oauth/register", r.auth.OAuthRegister, RequireOAuthGrant(r.verifier))

	users := e.Group("/users")
	users.GET("/me", r.auth.Me, user)
	users.GET("/:id", r.users.Get)
	users.PUT("/me", r.users.UpdateMe, user)
	users.PUT("/:id", r.users.Update, user)
	users.PUT("/me/password", r.users.ChangePassword, user)

	projects := e.Group("/projects")
	projects.GET("", r.projects.List)
	projects.GET("/search", r.projects.Search)
	projects.GET("/suggest", r.projects.Suggest)
	projects.GET("/repo_detail", r.projects.RepoPreview, user)
	projects.GET("/mine", r.projects.Mine, user)
	projects.GET("/:id", r.projects.Get)
	projects.POST("", r.projects.Submit, user)
	projects.PUT("/:id", r.projects.Update, user)
	projects.DELETE("/:id", r.projects.Delete, user)
	projects.GET("/:id/images", r.projects.Images)
	projects.GET("/:id/comments", r.comments.ByProject)
	projects.POST("/:id/comments", r.comments.Create, user)
	projects.GET("/:id/ratings", r.ratings.Distribution)
	projects.GET("/:id/ratings/me", r.ratings.Mine, user)
	projects.POST("/:id/ratings", r.ratings.Rate, user)
	projects.GET("/:id/favorites", r.favorites.Fans)
	projects.POST("/:id/favorites", r.favorites.Add, user)
	projects.DELETE("/:id/favorites", r.favorites.Remove, user)

	comments := e.Group("/comments")
	comments.GET("/:id", r.comments.Get)
	comments.GET("/:id/replies", r.comments.Replies)
	comments.DELETE("/:id", r.comments.Delete, user)

	tags := e.Group("/tags")
	tags.GET("", r.tags.List)
	tags.GET("/:id", r.tags.Get)

	e.GET("/favorites", r.favorites.Mine, user)

	notifications := e.Group("/notifications", user)
	notifications.GET("", r.notifications.Mine)
	notifications.PUT("/read-all", r.notifications.MarkAllRead)
	notifications.PUT("/:id/read", r.notifications.MarkRead)
	notifications.DELETE("/:id", r.notifications.Delete)

	images := e.Group("/images")
	images.GET("/:file_name", r.images.Serve)
	images.POST("", r.images.Upload, user)
	images.GET("/unattached/mine", r.images.Unattached, user)
	images.DELETE("/unattached/mine", r.images.CleanUnattached, user)
	images.DELETE("/:id", r.images.Delete, user)

	adminGroup := e.Group("/admin", user, admin)
	adminGroup.GET("/users", r.users.List)
	adminGroup.PUT("/users/:id/password", r.users.ResetPassword)
	adminGroup.GET("/projects/unapproved", r.projects.Unapproved)
	adminGroup.GET("/projects/:id/sync-logs", r.projects.SyncHistory)
	adminGroup.POST("/ratings/resync", r.ratings.Resync)
	adminGroup.POST("/tags", r.tags.Create)
	adminGroup.PUT("/tags/:id", r.tags.Update)
	adminGroup.DELETE("/tags/:id", r.tags.Delete)
	adminGroup.POST("/notifications/user", r.notifications.NotifyUser)
	adminGroup.POST("/notifications/broadcast", r.notifications.Broadcast)
}
