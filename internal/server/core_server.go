package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"ledger-service/internal/config"
	"ledger-service/internal/handler/rest"
	"ledger-service/internal/middleware"
	"ledger-service/internal/pkg/cache"
	publisher "ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/usecase"
)

// Server owns the HTTP listener and every shared client it was wired with.
type Server struct {
	cfg    config.AppConfig
	http   *http.Server
	db     *pgxpool.Pool
	rdb    *redis.Client
	kafka  *kafka.Writer
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	db, err := config.ConnectDB()
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})

	var writer *kafka.Writer
	if len(cfg.KafkaBrokers) > 0 {
		writer = &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        publisher.LedgerEventsTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		}
	}

	c := cache.NewCacheWithClient(rdb)
	events := publisher.NewLedgerEventPublisher(rdb, writer, logger)

	accountRepo := repository.NewAccountRepo(db)
	depositRepo := repository.NewDepositRepo(db)
	withdrawalRepo := repository.NewWithdrawalRepo(db)
	claimRepo := repository.NewRewardClaimRepo(db)
	referralRepo := repository.NewReferralRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	policyRepo := repository.NewPolicyRepo(db)
	txManager := repository.NewTxManager(db)

	accountUC := usecase.NewAccountUsecase(accountRepo, logger)
	policyUC := usecase.NewPolicyUsecase(policyRepo, auditRepo, txManager, c, events, logger)
	referralUC := usecase.NewReferralUsecase(referralRepo, accountRepo, auditRepo, txManager, events, logger)
	depositUC := usecase.NewDepositUsecase(depositRepo, accountRepo, auditRepo, txManager, policyUC, referralUC, events, logger)
	withdrawalUC := usecase.NewWithdrawalUsecase(withdrawalRepo, accountRepo, auditRepo, txManager, policyUC, events, logger)
	dailyRewardUC := usecase.NewDailyRewardUsecase(claimRepo, accountRepo, referralRepo, auditRepo, txManager, policyUC, events, logger)
	randomRewardUC := usecase.NewRandomRewardUsecase(claimRepo, accountRepo, auditRepo, txManager, policyUC, events, logger)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	h := rest.NewLedgerHandler(accountUC, depositUC, withdrawalUC, dailyRewardUC, randomRewardUC, referralUC, policyUC, auditUC, logger)
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret, logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(c, cfg.RateLimitPerMin, time.Minute, "ledger"))

	r.Get("/healthz", h.HealthCheck)

	r.Route("/api/v1/ledger", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Get("/account", h.GetAccount)

			r.Route("/deposits", func(r chi.Router) {
				r.Post("/", h.CreateDeposit)
				r.Get("/", h.ListDeposits)
				r.Get("/{id}", h.GetDeposit)
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.Post("/", h.CreateWithdrawal)
				r.Get("/", h.ListWithdrawals)
				r.Get("/eligibility", h.WithdrawalEligibility)
				r.Get("/{id}", h.GetWithdrawal)
			})

			r.Route("/rewards", func(r chi.Router) {
				r.Get("/daily", h.DailyRewardStatus)
				r.Post("/daily/claim", h.ClaimDailyReward)
				r.Get("/daily/history", h.DailyRewardHistory)
				r.Get("/random", h.RandomRewardStatus)
				r.Post("/random/claim", h.ClaimRandomReward)
				r.Get("/random/history", h.RandomRewardHistory)
			})

			r.Route("/referrals", func(r chi.Router) {
				r.Get("/stats", h.ReferralStats)
				r.Get("/commissions", h.ReferralCommissions)
				r.Post("/refresh", h.RefreshReferralTier)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Require, auth.RequireAdmin)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/accounts", h.RegisterAccount)
				r.Get("/deposits/pending", h.ListPendingDeposits)
				r.Post("/deposits/{id}/approve", h.ApproveDeposit)
				r.Post("/deposits/{id}/reject", h.RejectDeposit)
				r.Get("/withdrawals/pending", h.ListPendingWithdrawals)
				r.Post("/withdrawals/{id}/approve", h.ApproveWithdrawal)
				r.Post("/withdrawals/{id}/reject", h.RejectWithdrawal)
				r.Get("/policies", h.GetPolicies)
				r.Post("/policies", h.SetPolicy)
				r.Get("/audit", h.ListAuditRecords)
			})
		})
	})

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		db:     db,
		rdb:    rdb,
		kafka:  writer,
		logger: logger,
	}, nil
}

// Run blocks until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("ledger service listening", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes shared clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.kafka != nil {
		if cerr := s.kafka.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if cerr := s.rdb.Close(); cerr != nil && err == nil {
		err = cerr
	}
	s.db.Close()
	return err
}
