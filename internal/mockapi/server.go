// Package mockapi implements an in-process stand-in for the remote Expenzeus
// API: the auth endpoints and the expense CRUD, backed by SQLite. It exists
// for local development (the mobile clients this API was built for were
// historically pointed at hardcoded LAN addresses) and for the CLI's
// integration tests, which run against it over httptest.
package mockapi

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Server represents the mock API server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	logger    zerolog.Logger
	jwtSecret []byte
}

// New creates a mock API server backed by the SQLite database at dbURL
// (":memory:" for a throwaway instance). The JWT secret is generated per
// process; restarting the server invalidates previously issued tokens, which
// doubles as a convenient way to exercise the CLI's session-expiry path.
func New(dbURL string, zlog zerolog.Logger) (*Server, error) {
	db, err := initDatabase(dbURL)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	jwtSecret := make([]byte, 32)
	if _, err := rand.Read(jwtSecret); err != nil {
		return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	server := &Server{
		db:        db,
		logger:    zlog,
		jwtSecret: jwtSecret,
	}
	server.setupRouter()

	return server, nil
}

// registerValidators adds custom validations to gin's binding validator
func registerValidators() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil
		})
	}
	return nil
}

// initDatabase opens the SQLite database with settings suited to a small
// single-process server
func initDatabase(dbURL string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// Dev clients (Expo, browsers) connect from arbitrary origins
	s.router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/v1/api")

	// Public auth endpoints
	api.POST("/auth/signUp", s.signUp)
	api.POST("/auth/signIn", s.signIn)

	// Authenticated endpoints
	authed := api.Group("")
	authed.Use(s.authMiddleware())
	{
		authed.GET("/auth/profile", s.profile)

		authed.GET("/expenses", s.listExpenses)
		authed.POST("/expenses", s.createExpense)
		authed.PATCH("/expenses/:id", s.updateExpense)
		authed.DELETE("/expenses/:id", s.deleteExpense)
	}
}

// Handler returns the server's HTTP handler, for mounting under httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server on the given address (this blocks)
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("Mock API listening")
	return s.router.Run(addr)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// loggingMiddleware logs each request through zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}
