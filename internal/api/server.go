package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/wallet-feed/internal/auth"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/service"
)

// Service interfaces for dependency injection and testing

// ProfileServiceInterface defines the interface for profile operations
type ProfileServiceInterface interface {
	Get(ctx context.Context, address, viewer string) (*models.ProfileView, error)
	Update(ctx context.Context, caller string, input service.UpdateProfileInput) (*models.ProfileView, error)
	Explore(ctx context.Context, viewer string) ([]*models.ProfileView, error)
}

// PostServiceInterface defines the interface for post operations
type PostServiceInterface interface {
	Create(ctx context.Context, author string, input service.CreatePostInput) (*models.Post, error)
	Get(ctx context.Context, id int64, viewer string) (*service.PostView, error)
	Update(ctx context.Context, id int64, caller string, input service.UpdatePostInput) (*models.Post, error)
	Delete(ctx context.Context, id int64, caller string) error
	ListByAuthor(ctx context.Context, author, viewer string, page int) ([]*service.PostView, error)
	Repost(ctx context.Context, refPostID int64, caller string, quoteText string) (*models.Post, error)
	DeleteRepost(ctx context.Context, refPostID int64, caller string) error
}

// CommentServiceInterface defines the interface for comment operations
type CommentServiceInterface interface {
	Create(ctx context.Context, postID int64, author string, input service.CreateCommentInput) (*models.Comment, error)
	Get(ctx context.Context, id int64, viewer string) (*service.CommentView, error)
	Delete(ctx context.Context, id int64, caller string) error
	ListByPost(ctx context.Context, postID int64, viewer string, page int) ([]*service.CommentView, error)
}

// LikeServiceInterface defines the interface for like operations
type LikeServiceInterface interface {
	LikePost(ctx context.Context, postID int64, liker string) (*models.PostLike, error)
	UnlikePost(ctx context.Context, postID int64, liker string) error
	ListPostLikes(ctx context.Context, postID int64, page int) ([]*models.PostLike, error)
	LikeComment(ctx context.Context, commentID int64, liker string) (*models.CommentLike, error)
	UnlikeComment(ctx context.Context, commentID int64, liker string) error
}

// FollowServiceInterface defines the interface for follow operations
type FollowServiceInterface interface {
	Follow(ctx context.Context, src, dest string) (*models.Follow, error)
	Unfollow(ctx context.Context, src, dest string) error
	ListFollowers(ctx context.Context, address string, page int) ([]string, error)
	ListFollowing(ctx context.Context, address string, page int) ([]string, error)
}

// FeedServiceInterface defines the interface for feed operations
type FeedServiceInterface interface {
	Get(ctx context.Context, viewer string, page int) ([]*service.PostView, error)
}

// NotificationServiceInterface defines the interface for notification operations
type NotificationServiceInterface interface {
	List(ctx context.Context, recipient string, page, pageSize int) ([]*models.Notification, error)
	CountUnviewed(ctx context.Context, recipient string) (int, error)
	MarkViewed(ctx context.Context, recipient string, ids []int64) error
}

// IngestQueueInterface defines the interface for ingestion job operations
type IngestQueueInterface interface {
	Enqueue(ctx context.Context, address string) (*models.IngestJob, error)
}

// IngestJobReader reads ingestion job state
type IngestJobReader interface {
	GetByID(ctx context.Context, jobID string) (*models.IngestJob, error)
}

// Server represents the HTTP API server.
type Server struct {
	router              *mux.Router
	httpServer          *http.Server
	authenticator       *auth.Authenticator
	profileService      ProfileServiceInterface
	postService         PostServiceInterface
	commentService      CommentServiceInterface
	likeService         LikeServiceInterface
	followService       FollowServiceInterface
	feedService         FeedServiceInterface
	notificationService NotificationServiceInterface
	ingestQueue         IngestQueueInterface
	ingestJobs          IngestJobReader
	config              *ServerConfig
	logger              *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestsPerSecond int
	Burst             int
}

// Services bundles the service dependencies of the server.
type Services struct {
	Profiles      ProfileServiceInterface
	Posts         PostServiceInterface
	Comments      CommentServiceInterface
	Likes         LikeServiceInterface
	Follows       FollowServiceInterface
	Feed          FeedServiceInterface
	Notifications NotificationServiceInterface
	IngestQueue   IngestQueueInterface
	IngestJobs    IngestJobReader
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, authenticator *auth.Authenticator, services Services, logger *logging.Logger) *Server {
	s := &Server{
		router:              mux.NewRouter(),
		authenticator:       authenticator,
		profileService:      services.Profiles,
		postService:         services.Posts,
		commentService:      services.Comments,
		likeService:         services.Likes,
		followService:       services.Follows,
		feedService:         services.Feed,
		notificationService: services.Notifications,
		ingestQueue:         services.IngestQueue,
		ingestJobs:          services.IngestJobs,
		config:              config,
		logger:              logger,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	// Middleware order matters: limit before compressing
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Read endpoints work anonymously; a valid wallet header still
	// personalizes the response.
	public := s.router.PathPrefix("/api").Subrouter()
	public.Use(s.authenticator.OptionalMiddleware)

	public.HandleFunc("/explore", s.handleExplore).Methods("GET")
	public.HandleFunc("/posts/{address}", s.handleListPosts).Methods("GET")
	public.HandleFunc("/post/{id:[0-9]+}", s.handleGetPost).Methods("GET")
	public.HandleFunc("/post/{id:[0-9]+}/likes", s.handleListPostLikes).Methods("GET")
	public.HandleFunc("/post/{id:[0-9]+}/comments", s.handleListComments).Methods("GET")
	public.HandleFunc("/comment/{id:[0-9]+}", s.handleGetComment).Methods("GET")
	public.HandleFunc("/{address}/profile", s.handleGetProfile).Methods("GET")
	public.HandleFunc("/{address}/followers", s.handleListFollowers).Methods("GET")
	public.HandleFunc("/{address}/following", s.handleListFollowing).Methods("GET")

	// Everything that acts on behalf of a wallet requires the header
	protected := s.router.PathPrefix("/api").Subrouter()
	protected.Use(s.authenticator.Middleware)

	protected.HandleFunc("/user", s.handleGetUser).Methods("GET")
	protected.HandleFunc("/feed", s.handleGetFeed).Methods("GET")

	protected.HandleFunc("/ingest/{address}", s.handleTriggerIngest).Methods("POST")
	protected.HandleFunc("/ingest/jobs/{id}", s.handleGetIngestJob).Methods("GET")

	protected.HandleFunc("/posts/{address}", s.handleCreatePost).Methods("POST")
	protected.HandleFunc("/post/{id:[0-9]+}", s.handleUpdatePost).Methods("PUT")
	protected.HandleFunc("/post/{id:[0-9]+}", s.handleDeletePost).Methods("DELETE")
	protected.HandleFunc("/post/{id:[0-9]+}/like", s.handleLikePost).Methods("POST")
	protected.HandleFunc("/post/{id:[0-9]+}/like", s.handleUnlikePost).Methods("DELETE")
	protected.HandleFunc("/post/{id:[0-9]+}/repost", s.handleRepost).Methods("POST")
	protected.HandleFunc("/post/{id:[0-9]+}/repost", s.handleDeleteRepost).Methods("DELETE")
	protected.HandleFunc("/post/{id:[0-9]+}/comments", s.handleCreateComment).Methods("POST")

	protected.HandleFunc("/comment/{id:[0-9]+}", s.handleDeleteComment).Methods("DELETE")
	protected.HandleFunc("/comment/{id:[0-9]+}/like", s.handleLikeComment).Methods("POST")
	protected.HandleFunc("/comment/{id:[0-9]+}/like", s.handleUnlikeComment).Methods("DELETE")

	protected.HandleFunc("/notifications", s.handleListNotifications).Methods("GET")
	protected.HandleFunc("/notifications/viewed", s.handleMarkNotificationsViewed).Methods("PUT")

	protected.HandleFunc("/{address}/profile", s.handleUpdateProfile).Methods("PUT")
	protected.HandleFunc("/{address}/follow", s.handleFollow).Methods("POST")
	protected.HandleFunc("/{address}/follow", s.handleUnfollow).Methods("DELETE")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-feed",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the configured router for tests
func (s *Server) Router() http.Handler {
	return s.router
}
