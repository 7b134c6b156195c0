package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/Peixotim/sales-bot/internal/audit"
	auditrepo "github.com/Peixotim/sales-bot/internal/audit/repository"
	"github.com/Peixotim/sales-bot/internal/authmaterial"
	authmaterialrepo "github.com/Peixotim/sales-bot/internal/authmaterial/repository"
	"github.com/Peixotim/sales-bot/internal/config"
	contactsrepo "github.com/Peixotim/sales-bot/internal/contacts/repository"
	contactsservice "github.com/Peixotim/sales-bot/internal/contacts/service"
	"github.com/Peixotim/sales-bot/internal/conversation"
	conversationrepo "github.com/Peixotim/sales-bot/internal/conversation/repository"
	healthhandler "github.com/Peixotim/sales-bot/internal/health/handler"
	"github.com/Peixotim/sales-bot/internal/ingest"
	"github.com/Peixotim/sales-bot/internal/ingest/media"
	"github.com/Peixotim/sales-bot/internal/notifier"
	"github.com/Peixotim/sales-bot/internal/notifier/ws"
	"github.com/Peixotim/sales-bot/internal/policy/engine"
	"github.com/Peixotim/sales-bot/internal/protocol"
	"github.com/Peixotim/sales-bot/internal/security"
	"github.com/Peixotim/sales-bot/internal/server"
	"github.com/Peixotim/sales-bot/internal/server/interceptors"
	"github.com/Peixotim/sales-bot/internal/session/lifecycle"
	"github.com/Peixotim/sales-bot/internal/session/registry"
	"github.com/Peixotim/sales-bot/internal/telemetry"
	telemetryotel "github.com/Peixotim/sales-bot/internal/telemetry/otel"
	"github.com/Peixotim/sales-bot/internal/telemetry/producer"
)

// publicMethods may be called without a token.
var publicMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
	"/grpc.health.v1.Health/List":  true,
}

// auditSkip lists RPCs whose services write their own audit entries.
var auditSkip = map[string]bool{
	"/salesbot.contacts.v1.ContactService/Block":   true,
	"/salesbot.contacts.v1.ContactService/Unblock": true,
	"/salesbot.session.v1.SessionService/Logout":   true,
}

type app struct {
	logger     *slog.Logger
	hub        *notifier.Hub
	pipeline   *ingest.Pipeline
	controller *lifecycle.Controller
	grpc       *grpc.Server
	health     *health.Server
	checker    *healthhandler.Checker
	ws         http.Handler
	producers  []producer.Producer
}

func newApp(ctx context.Context, cfg *config.Config, conn *sql.DB, providers *telemetryotel.Providers, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}
	fs := afero.NewOsFs()

	if cfg.JWTPublicKey == "" {
		return nil, errors.New("server: JWT_PUBLIC_KEY is required")
	}
	_, pub, err := security.LoadKeyPair("", cfg.JWTPublicKey)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	tokens := security.NewTokenProvider(nil, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessTTL)

	emitter, err := a.buildEmitter(cfg, providers)
	if err != nil {
		return nil, err
	}

	policyModule := ""
	if cfg.InboundPolicyFile != "" {
		b, err := afero.ReadFile(fs, cfg.InboundPolicyFile)
		if err != nil {
			return nil, fmt.Errorf("inbound policy: %w", err)
		}
		policyModule = string(b)
	}
	policy, err := engine.NewOPAEvaluator(ctx, policyModule, logger)
	if err != nil {
		return nil, err
	}

	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditRepo, interceptors.ClientIP, interceptors.TenantActor, logger)
	blocklist := contactsservice.NewBlocklistService(contactsrepo.NewPostgresRepository(conn), auditLogger, cfg.DefaultCountryCode)

	prompt, err := conversation.LoadSystemPrompt(fs, cfg.SystemPromptFile)
	if err != nil {
		return nil, err
	}
	var gen conversation.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := conversation.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		gen = g
	} else {
		logger.Warn("server: GEMINI_API_KEY not set, replies will fail with an apology")
	}
	assistant := conversation.NewAssistant(gen, conversationrepo.NewPostgresRepository(conn), conversation.Config{
		SystemPrompt: prompt,
		Retention:    cfg.HistoryRetention,
	}, logger)

	a.pipeline = ingest.New(ingest.Deps{
		Blocklist:    blocklist,
		Collaborator: assistant,
		Stager:       media.NewStager(fs, cfg.MediaDir),
		Policy:       policy,
		Emitter:      emitter,
	}, ingest.Config{
		ReplyTimeout:  cfg.ReplyTimeout,
		MediaTimeout:  cfg.MediaTimeout,
		TypingEnabled: cfg.TypingEnabled,
		Pacer:         ingest.Pacer{PerChar: cfg.TypingPerChar, Max: cfg.TypingMax},
	}, logger)

	a.hub = notifier.NewHub(tokens, logger)
	a.ws = ws.NewHandler(a.hub, ws.Config{}, logger)

	deps := server.Deps{
		Blocklist: blocklist,
		History:   assistant,
		Logger:    logger,
	}
	if cfg.ProtocolDriver == "" {
		logger.Warn("server: PROTOCOL_DRIVER not set, sessions are disabled", "available", protocol.Drivers())
	} else {
		factory, err := protocol.Lookup(cfg.ProtocolDriver)
		if err != nil {
			return nil, err
		}
		store := authmaterial.NewStore(authmaterialrepo.NewPostgresRepository(conn), cfg.StoreTimeout, logger)
		a.controller = lifecycle.New(lifecycle.Deps{
			Registry: registry.New(),
			Store:    store,
			Factory:  factory,
			Notifier: a.hub,
			Messages: a.pipeline,
			Audit:    auditLogger,
			Emitter:  emitter,
		}, lifecycle.Config{
			ReconnectDelay: cfg.ReconnectDelay,
			StoreTimeout:   cfg.StoreTimeout,
		}, logger)
		deps.Lifecycle = a.controller
		deps.Notifier = a.hub
	}

	a.health = health.NewServer()
	a.checker = healthhandler.NewChecker(conn, policy, logger)
	deps.Health = a.health

	a.grpc = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.AuthUnary(tokens, publicMethods),
			interceptors.TelemetryUnary(emitter, publicMethods),
			interceptors.AuditUnary(auditRepo, auditSkip, logger),
		),
		grpc.ChainStreamInterceptor(
			interceptors.AuthStream(tokens, publicMethods),
		),
	)
	server.RegisterServices(a.grpc, deps)
	return a, nil
}

// buildEmitter fans telemetry out to OTel logs, OTel metrics and, when brokers are set, Kafka.
func (a *app) buildEmitter(cfg *config.Config, providers *telemetryotel.Providers) (telemetry.EventEmitter, error) {
	fan := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	metrics, err := telemetryotel.NewMetricsEmitter(providers.MeterProvider.Meter("salesbot"))
	if err != nil {
		return nil, fmt.Errorf("telemetry metrics: %w", err)
	}
	fan = append(fan, metrics)
	brokers := cfg.TelemetryKafkaBrokersList()
	if p := producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic); p != nil {
		a.producers = append(a.producers, p)
		fan = append(fan, p)
		a.logger.Info("server: producing telemetry to kafka", "brokers", brokers, "topic", cfg.TelemetryKafkaTopic)
	}
	return fan, nil
}

func (a *app) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", a.ws)
	mux.Handle("/healthz", a.checker)
	return mux
}

// drain stops the sessions and waits up to d for in-flight messages.
func (a *app) drain(d time.Duration) {
	if a.controller != nil {
		a.controller.Shutdown()
	}
	done := make(chan struct{})
	go func() {
		a.pipeline.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		a.logger.Warn("server: in-flight messages still running after drain", "drain", d)
	}
	a.hub.Close()
}

func (a *app) close() {
	for _, p := range a.producers {
		if err := p.Close(); err != nil {
			a.logger.Warn("server: closing telemetry producer failed", "error", err)
		}
	}
}
