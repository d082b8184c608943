package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/notekeeper/apiserver/config"
	"github.com/notekeeper/apiserver/internal/auth"
	"github.com/notekeeper/apiserver/internal/cache"
	rediscache "github.com/notekeeper/apiserver/internal/cache/redis"
	"github.com/notekeeper/apiserver/internal/db"
	"github.com/notekeeper/apiserver/internal/handlers"
	"github.com/notekeeper/apiserver/internal/logging"
	"github.com/notekeeper/apiserver/internal/mail"
	"github.com/notekeeper/apiserver/internal/mq"
	"github.com/notekeeper/apiserver/internal/services"
	"github.com/notekeeper/apiserver/internal/storage"
	"github.com/notekeeper/apiserver/internal/store"
)

const oauthHTTPTimeout = 10 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	closers    []io.Closer
	log        logging.Logger
}

// New constructs a Server from cfg, connecting every configured backend.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (srv *Server, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var closers []io.Closer
	defer func() {
		if err != nil {
			closeAll(closers)
		}
	}()

	var (
		userRepo services.UserRepository
		noteRepo services.NoteRepository
	)
	switch cfg.Database.Driver {
	case db.DriverMemory:
		userRepo = store.NewMemoryUserRepository()
		noteRepo = store.NewMemoryNoteRepository()
		log.Warn(ctx, "using in-memory database; data is lost on restart")
	default:
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		closers = append(closers, dbConn)
		userRepo = store.NewUserRepository(dbConn)
		noteRepo = store.NewNoteRepository(dbConn)
	}

	images, err := newImageStore(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	sender, closer, err := newMailSender(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	var noteCache cache.NoteCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisCache, err := rediscache.NewRedisNoteCache(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		closers = append(closers, redisCache)
		noteCache = redisCache
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userService := services.NewUserService(services.UserServiceDeps{
		Repo:     userRepo,
		Hasher:   auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.FederatedSecret),
		Tokens:   tokens,
		Images:   images,
		Mailer:   sender,
		Resolver: services.NewOAuthResolver(cfg.OAuth, &http.Client{Timeout: oauthHTTPTimeout}),
		MailFrom: cfg.Mail.From,
		Log:      log.With("service", "users"),
	})
	noteService := services.NewNoteService(noteRepo, noteCache, log.With("service", "notes"))
	uploader := handlers.NewUploader(cfg.Upload)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, tokens, uploader, log.With("router", "auth"))
	})
	router.Route("/api/notes", func(r chi.Router) {
		handlers.NoteRouter(r, noteService, handlers.RequireAuth(tokens), log.With("router", "notes"))
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		closers:    closers,
		log:        log,
	}, nil
}

func newImageStore(ctx context.Context, cfg config.StorageConfig, log logging.Logger) (*storage.ImageStore, error) {
	backend, err := storage.NewBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	objects := storage.NewStorage(backend)
	if err := objects.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	images := storage.NewImageStore(objects, cfg.DefaultImageKey)
	if err := images.EnsureDefault(ctx); err != nil {
		return nil, fmt.Errorf("seed default image: %w", err)
	}
	log.Info(ctx, "image storage ready", "driver", cfg.Driver, "bucket", objects.Bucket())
	return images, nil
}

// newMailSender picks the outbound mail transport. The returned closer is
// nil unless the transport holds a connection.
func newMailSender(ctx context.Context, cfg config.Config) (mail.Sender, io.Closer, error) {
	switch cfg.Mail.Transport {
	case "", "smtp":
		return mail.NewSMTPSender(cfg.Mail.SMTP), nil, nil
	case "queue":
		backend, err := mq.NewBackend(ctx, cfg.MQ)
		if err != nil {
			return nil, nil, fmt.Errorf("init mq: %w", err)
		}
		queue := mq.New(backend)
		return mail.NewQueueSender(queue, cfg.Mail.Channel), queue, nil
	case "disabled":
		return mail.DisabledSender{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported mail transport %q", cfg.Mail.Transport)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and then releases backend connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	closeAll(s.closers)
	return err
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i].Close()
	}
}
