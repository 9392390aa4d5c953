package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ecociclo/api/internal/categoria"
	"github.com/ecociclo/api/internal/coleta"
	"github.com/ecociclo/api/internal/config"
	"github.com/ecociclo/api/internal/foto"
	"github.com/ecociclo/api/internal/geo"
	httpmiddleware "github.com/ecociclo/api/internal/http/middleware"
	"github.com/ecociclo/api/internal/ponto"
	"github.com/ecociclo/api/internal/service"
	"github.com/ecociclo/api/internal/storage"
)

// Handler agrega as dependências dos endpoints transversais (auth, arquivos,
// geocodificação). Os domínios de ponto e coleta têm handlers próprios.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	storage       storage.BlobStore
	fotos         *foto.Repository
	maps          *geo.Client
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve o roteador configurado com todos os domínios montados.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, error) {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	var blobs storage.BlobStore = storage.NoopStore{}
	switch cfg.Storage.Provider {
	case "", "noop":
		// mantém armazenamento nulo
	case "s3", "r2", "minio":
		store, err := storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		blobs = store
	default:
		return nil, fmt.Errorf("storage: provedor %s não suportado", cfg.Storage.Provider)
	}

	fotoRepo := foto.NewRepository(pool)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		storage:       blobs,
		fotos:         fotoRepo,
		maps:          geo.NewClient(cfg.GoogleMapsKey),
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	categoriaHandler := categoria.NewHandler(categoria.NewRepository(pool))

	pontoRepo := ponto.NewRepository(pool)
	pontoHandler := ponto.NewHandler(ponto.NewService(pontoRepo, fotoRepo))

	coletaHandler := coleta.NewHandler(coleta.NewService(coleta.NewRepository(pool)))

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Post("/register", h.Register)
		public.Post("/login", h.Login)
		public.Post("/refresh", h.Refresh)
		public.Post("/logout", h.Logout)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/profile", h.Profile)
		private.Put("/profile", h.UpdateProfile)

		private.Post("/file", h.UploadFile)
		private.Get("/file/{fotoID}", h.DownloadFile)

		private.Get("/google-maps", h.GoogleMaps)

		categoriaHandler.RegisterRoutes(private)
		pontoHandler.RegisterRoutes(private)

		private.Group(func(catadores chi.Router) {
			catadores.Use(httpmiddleware.RequireCatador)
			coletaHandler.RegisterRoutes(catadores)
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
