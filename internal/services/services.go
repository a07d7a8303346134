// Package services wires the engine, response log and assistant lifecycle
// shared by every courier command.
package services

import (
	"context"
	"fmt"

	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/internal/connections"
	"github.com/deepgram/courier/internal/infrastructure/openai"
	"github.com/deepgram/courier/internal/infrastructure/redis"
	"github.com/deepgram/courier/internal/responselog"
	"github.com/deepgram/courier/internal/services/assistant"
	"github.com/deepgram/courier/internal/services/chat"
	"github.com/rs/zerolog/log"
)

type Services struct {
	cfg               *config.Config
	redisService      *redis.Service
	responseLog       responselog.Log
	client            *openai.Client
	orchestrator      *chat.Orchestrator
	assistantManager  *assistant.Manager
	connectionManager *connections.Manager
}

// InitializeServices builds the shared services from cfg. Redis is optional:
// without it the response log is kept in memory and assistant sessions are
// not recoverable after a crash.
func InitializeServices(cfg *config.Config, opts ...openai.Option) (*Services, error) {
	log.Info().Msg("Initializing core services")

	redisService := redis.NewService(cfg.Redis)

	logBackend := redisService
	if cfg.ResponseLog.Backend != config.BackendRedis {
		logBackend = nil
	}
	responseLog := responselog.New(logBackend, cfg.ResponseLog.Capacity)

	clientOpts := append([]openai.Option{
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithTimeout(cfg.OpenAI.RequestTimeout),
		openai.WithMaxRetries(cfg.OpenAI.MaxRetries),
		openai.WithDebug(cfg.OpenAI.Debug),
		openai.WithResponseLog(responseLog),
	}, opts...)
	client, err := openai.NewClient(cfg.OpenAI.APIKey, clientOpts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize assistants client")
		return nil, fmt.Errorf("failed to initialize assistants client: %w", err)
	}

	orchestrator := chat.NewOrchestrator(client, openai.PollOptions{
		Interval:        cfg.Poll.Interval,
		Timeout:         cfg.Poll.Timeout,
		CancelOnTimeout: cfg.Poll.CancelOnTimeout,
	})

	log.Info().
		Bool("redis", redisService != nil).
		Str("response_log", cfg.ResponseLog.Backend).
		Msg("All services initialized successfully")

	return &Services{
		cfg:               cfg,
		redisService:      redisService,
		responseLog:       responseLog,
		client:            client,
		orchestrator:      orchestrator,
		assistantManager:  assistant.NewManager(client, cfg.Assistant, redisService),
		connectionManager: connections.NewManager(connections.DefaultTimeouts),
	}, nil
}

func (s *Services) Config() *config.Config {
	return s.cfg
}

func (s *Services) GetClient() *openai.Client {
	return s.client
}

func (s *Services) GetResponseLog() responselog.Log {
	return s.responseLog
}

func (s *Services) GetOrchestrator() *chat.Orchestrator {
	return s.orchestrator
}

func (s *Services) GetAssistantManager() *assistant.Manager {
	return s.assistantManager
}

func (s *Services) GetConnectionManager() *connections.Manager {
	return s.connectionManager
}

// RecoverAssistants removes resources left by runs that exited before
// tearing down their assistants. Sessions of live processes are kept.
func (s *Services) RecoverAssistants(ctx context.Context) {
	if s.assistantManager.Recover(ctx) {
		log.Warn().Msg("Removed assistant resources left by a previous run")
	}
}

// Close stops refreshing assistant leases and releases the Redis connection
// when one is open.
func (s *Services) Close() error {
	s.assistantManager.Close()
	if s.redisService == nil {
		return nil
	}
	return s.redisService.Close()
}
