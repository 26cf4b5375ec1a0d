package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/coachcal/coachcal/libs/config"
	"github.com/coachcal/coachcal/libs/db"
	"github.com/coachcal/coachcal/libs/httpx"
	"github.com/coachcal/coachcal/libs/kafkax"
	otelx "github.com/coachcal/coachcal/libs/otel"
	"github.com/coachcal/coachcal/libs/runtime"
	"github.com/coachcal/coachcal/services/calendar-service/internal/consumer"
	"github.com/coachcal/coachcal/services/calendar-service/internal/handlers"
	"github.com/coachcal/coachcal/services/calendar-service/internal/inbox"
	"github.com/coachcal/coachcal/services/calendar-service/internal/model"
	"github.com/coachcal/coachcal/services/calendar-service/internal/outbox"
	"github.com/coachcal/coachcal/services/calendar-service/internal/policy"
	"github.com/coachcal/coachcal/services/calendar-service/internal/schedule"
	"github.com/coachcal/coachcal/services/calendar-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "calendar-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewCalendarRepository(pool)
	policyRepo := storage.NewPolicyRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	defaults := policy.BookingPolicy{
		AdvanceNotice:    time.Duration(config.Int("ADVANCE_NOTICE_HOURS", schedule.DefaultAdvanceNoticeHours)) * time.Hour,
		MaxHorizonMonths: config.Int("MAX_HORIZON_MONTHS", schedule.DefaultMaxHorizonMonths),
	}
	cachedProvider := policy.NewCachedProvider(policyRepo, defaults)
	policyProvider, err := policy.NewProfilePolicyProvider(logger, cachedProvider, config.String("PROFILE_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("policy provider init failed; using cached defaults", "err", err)
		policyProvider = cachedProvider
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	policyTopic := config.String("KAFKA_CONSUME_TOPIC", "coach.policy.updated.v1")
	if strings.TrimSpace(policyTopic) != "" {
		consumerCfg := consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "calendar-service"),
			Topic:   policyTopic,
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
			// Profile publishes the full policy; the local cache always holds
			// the latest version per coach.
			var payload struct {
				CoachID            string `json:"coach_id"`
				AdvanceNoticeHours int    `json:"advance_notice_hours"`
				MaxHorizonMonths   int    `json:"max_horizon_months"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
				return nil
			}
			if payload.CoachID == "" || payload.MaxHorizonMonths <= 0 {
				logger.Error("missing required event fields", "topic", msg.Topic)
				return nil
			}

			tx, err := pool.Begin(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback(ctx) }()

			if err := policyRepo.Upsert(ctx, tx, model.CoachPolicy{
				CoachID:            payload.CoachID,
				AdvanceNoticeHours: payload.AdvanceNoticeHours,
				MaxHorizonMonths:   payload.MaxHorizonMonths,
			}); err != nil {
				return err
			}
			return tx.Commit(ctx)
		})
		go eventConsumer.Run(ctx)
	}

	calendarHandler := handlers.NewCalendarHandler(repo, outboxRepo, logger, policyProvider)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/availability", calendarHandler.CreateSlot)
	mux.HandleFunc("/api/v1/availability/recurring", availabilityRecurring(calendarHandler))
	mux.HandleFunc("/api/v1/availability/recurring/matches", calendarHandler.MatchRecurring)
	mux.HandleFunc("/api/v1/availability/", calendarHandler.DeleteSlot)
	mux.HandleFunc("/api/v1/calendar/week", calendarHandler.Week)
	mux.HandleFunc("/api/v1/calendar/month", calendarHandler.Month)
	mux.HandleFunc("/api/v1/calendar/day", calendarHandler.Day)
	mux.HandleFunc("/api/v1/sessions/request", calendarHandler.RequestSession)
	mux.HandleFunc("/api/v1/sessions", calendarHandler.ListSessions)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "calendar")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// availabilityRecurring fans one path out to create (POST) and recurring
// delete (DELETE).
func availabilityRecurring(h *handlers.CalendarHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateRecurring(w, r)
		case http.MethodDelete:
			h.DeleteRecurring(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
