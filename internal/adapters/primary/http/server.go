package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/export"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

// Version is reported by the health endpoint and the event stream.
const Version = "1.0.0"

// HTTPLogger provides structured logging for the HTTP server
type HTTPLogger struct {
	component string
	verbose   bool
	level     entities.LogLevel
}

// NewHTTPLogger creates a new HTTP logger instance
func NewHTTPLogger(component string, verbose bool) *HTTPLogger {
	return &HTTPLogger{
		component: component,
		verbose:   verbose,
		level:     entities.LogLevelInfo, // Default level
	}
}

// NewHTTPLoggerWithLevel creates a new HTTP logger instance with specific level
func NewHTTPLoggerWithLevel(component string, verbose bool, level entities.LogLevel) *HTTPLogger {
	return &HTTPLogger{
		component: component,
		verbose:   verbose,
		level:     level,
	}
}

// shouldLog checks if the message should be logged based on level
func (l *HTTPLogger) shouldLog(msgLevel entities.LogLevel) bool {
	levelMap := map[entities.LogLevel]int{
		entities.LogLevelDebug: 0,
		entities.LogLevelInfo:  1,
		entities.LogLevelWarn:  2,
		entities.LogLevelError: 3,
	}

	currentLevel := levelMap[l.level]
	if l.verbose {
		currentLevel = 0
	}
	messageLevel := levelMap[msgLevel]

	return messageLevel >= currentLevel
}

// Debug logs debug messages (only if debug level is enabled)
func (l *HTTPLogger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelDebug) {
		log.Printf("[DEBUG] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Info logs informational messages (only if info level or higher is enabled)
func (l *HTTPLogger) Info(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelInfo) {
		log.Printf("[INFO] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Warn logs warning messages (only if warn level or higher is enabled)
func (l *HTTPLogger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelWarn) {
		log.Printf("[WARN] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Error logs error messages (always logged)
func (l *HTTPLogger) Error(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelError) {
		log.Printf("[ERROR] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Success logs success messages (only if info level or higher is enabled)
func (l *HTTPLogger) Success(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelInfo) {
		log.Printf("[SUCCESS] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// SetLevel updates the logging level
func (l *HTTPLogger) SetLevel(level entities.LogLevel) {
	l.level = level
}

// PipelineFactory builds an export pipeline that writes into sink.
type PipelineFactory func(sink ports.ArtifactSink) (*export.Pipeline, error)

// Dependencies are the services the API exposes.
type Dependencies struct {
	Presentations *services.PresentationService
	Themes        *services.ThemeService
	NewPipeline   PipelineFactory
	Metrics       *monitoring.Metrics

	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
}

// Server is the editor's HTTP API
type Server struct {
	server        *http.Server
	connMgr       *ConnectionManager
	presentations *services.PresentationService
	store         *services.Store
	themes        *services.ThemeService
	newPipeline   PipelineFactory
	metrics       *monitoring.Metrics
	gatherer      prometheus.Gatherer
	config        *entities.ServerConfig
	logger        *HTTPLogger
	mu            sync.RWMutex
	running       bool
	streaming     bool
}

// NewServer creates a new HTTP server
// config must not be nil - use config.GetDefaultConfig().Server if needed
func NewServer(deps Dependencies, config *entities.ServerConfig, loggingConfig *entities.LoggingConfig) *Server {
	if config == nil {
		panic("server config cannot be nil - provide a valid ServerConfig")
	}
	if deps.Presentations == nil {
		panic("presentation service cannot be nil")
	}

	level := entities.LogLevelInfo
	verbose := false
	if loggingConfig != nil {
		level = loggingConfig.GetLevel()
		verbose = loggingConfig.Verbose
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		connMgr:       NewConnectionManager(deps.Metrics),
		presentations: deps.Presentations,
		store:         deps.Presentations.Store(),
		themes:        deps.Themes,
		newPipeline:   deps.NewPipeline,
		metrics:       deps.Metrics,
		gatherer:      gatherer,
		config:        config,
		logger:        NewHTTPLoggerWithLevel("server", verbose, level),
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context, port int, host string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.mu.Unlock()

	s.StartEventStream(ctx)

	s.mu.Lock()
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.GetReadTimeout(),
		WriteTimeout: s.config.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}
	s.running = true
	srv := s.server
	s.mu.Unlock()

	// Start server in goroutine
	go func() {
		s.logger.Info("HTTP server starting on %s:%d", host, port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// StartEventStream runs the websocket hub and forwards store events to it
// until ctx is done. It is safe to call more than once.
func (s *Server) StartEventStream(ctx context.Context) {
	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return
	}
	s.streaming = true
	s.mu.Unlock()

	go s.connMgr.Run(ctx)

	const subscriber = "http-event-stream"
	events := s.store.Subscribe(subscriber)
	go func() {
		defer s.store.Unsubscribe(subscriber)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				s.connMgr.Broadcast(event)
			}
		}
	}()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return errors.New("server not running")
	}

	// Close all WebSocket connections
	s.connMgr.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.GetShutdownTimeout())
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.running = false
	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.GetCORSOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		ExposedHeaders:   []string{"Content-Disposition", headerFailedSlides, headerFallback},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	})
	return c.Handler(s.setupRoutes())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()
	router.Use(s.metricsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/presentations", s.handleListPresentations).Methods(http.MethodGet)
	api.HandleFunc("/presentations", s.handleCreatePresentation).Methods(http.MethodPost)
	api.HandleFunc("/presentations/{id}", s.handleGetPresentation).Methods(http.MethodGet)
	api.HandleFunc("/presentations/{id}", s.handleUpdatePresentation).Methods(http.MethodPut)
	api.HandleFunc("/presentations/{id}", s.handleDeletePresentation).Methods(http.MethodDelete)

	api.HandleFunc("/presentations/{id}/slides", s.handleAddSlide).Methods(http.MethodPost)
	api.HandleFunc("/presentations/{id}/slides/order", s.handleReorderSlides).Methods(http.MethodPut)
	api.HandleFunc("/presentations/{id}/slides/{slideID}", s.handleUpdateSlide).Methods(http.MethodPut)
	api.HandleFunc("/presentations/{id}/slides/{slideID}", s.handleDeleteSlide).Methods(http.MethodDelete)
	api.HandleFunc("/presentations/{id}/slides/{slideID}/text", s.handleTextOperation).Methods(http.MethodPost)
	api.HandleFunc("/presentations/{id}/slides/{slideID}/image", s.handleSlideImage).Methods(http.MethodPost)

	api.HandleFunc("/presentations/{id}/export", s.handleExport).Methods(http.MethodPost)
	api.HandleFunc("/presentations/{id}/preview", s.handlePreview).Methods(http.MethodGet)
	api.HandleFunc("/presentations/{id}/save", s.handleSave).Methods(http.MethodPost)

	api.HandleFunc("/current", s.handleGetCurrent).Methods(http.MethodGet)
	api.HandleFunc("/current", s.handleSetCurrent).Methods(http.MethodPut)

	api.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)
	api.HandleFunc("/documents", s.handleDocument).Methods(http.MethodPost)

	api.HandleFunc("/preferences/theme", s.handleGetThemePreference).Methods(http.MethodGet)
	api.HandleFunc("/preferences/theme", s.handleSetThemePreference).Methods(http.MethodPut)
	api.HandleFunc("/themes", s.handleThemes).Methods(http.MethodGet)
	api.HandleFunc("/themes", s.handleCreateTheme).Methods(http.MethodPost)

	router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handleError(w, fmt.Errorf("no route for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handleError(w, fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed)
	})

	// Apply middleware in order: security -> rate limiting -> logging -> recovery
	handler := securityHeadersMiddleware(router)
	handler = rateLimitMiddleware(handler)
	handler = createLoggingMiddleware(handler, s.logger)
	handler = createRecoveryMiddleware(handler, s.logger)

	return handler
}
