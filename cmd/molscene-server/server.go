package main

import (
	"github.com/molscene/molscene/internal/persist"
	"github.com/molscene/molscene/internal/scene"
	"github.com/molscene/molscene/internal/scene/notifiers"
)

// sceneLoggerAdapter adapts the server's Logger to the scene.Logger interface
type sceneLoggerAdapter struct {
	logger *Logger
}

func (a *sceneLoggerAdapter) Debugf(format string, v ...any) {
	a.logger.Debugf(format, v...)
}

func (a *sceneLoggerAdapter) Infof(format string, v ...any) {
	a.logger.Infof(format, v...)
}

func (a *sceneLoggerAdapter) Warnf(format string, v ...any) {
	a.logger.Warnf(format, v...)
}

func (a *sceneLoggerAdapter) Errorf(format string, v ...any) {
	a.logger.Errorf(format, v...)
}

// Server represents the HTTP server for MolScene
type Server struct {
	manager    *scene.SceneManager
	hub        *scene.EventHub
	wsNotifier *notifiers.WebSocketNotifier
	kv         persist.KV
	metrics    *serverMetrics
	logger     *Logger
}

// NewServer creates a new server instance
func NewServer(cfg ServerConfig, logger *Logger) *Server {
	sceneLogger := &sceneLoggerAdapter{logger: logger}

	policy := scene.DefaultPolicy()
	policy.MaxStructures = cfg.MaxStructures
	policy.LargeAtomThreshold = cfg.LargeAtomThreshold
	policy.BondOffloadAtoms = cfg.BondOffloadAtoms
	policy.LayoutGap = cfg.LayoutGap

	hub := scene.NewEventHubWithLogger(sceneLogger)
	wsNotifier := notifiers.NewWebSocketNotifier("viewer-events")
	if err := hub.RegisterNotifier(wsNotifier); err != nil {
		logger.Errorf("Failed to register websocket notifier: %v", err)
	}

	manager := scene.NewSceneManagerWithLogger(policy, sceneLogger)
	manager.SetEventHub(hub)
	if cfg.BondWorkers > 0 {
		manager.SetBondInferencer(scene.NewWorkerInferencer(cfg.BondWorkers, sceneLogger))
	}

	kv, err := persist.NewSQLiteKV(cfg.DBPath)
	if err != nil {
		logger.Warnf("Cannot open persistence store at %s, falling back to in-memory: %v", cfg.DBPath, err)
		return &Server{
			manager:    manager,
			hub:        hub,
			wsNotifier: wsNotifier,
			kv:         persist.NewMemoryKV(),
			metrics:    newServerMetrics(),
			logger:     logger,
		}
	}

	return &Server{
		manager:    manager,
		hub:        hub,
		wsNotifier: wsNotifier,
		kv:         kv,
		metrics:    newServerMetrics(),
		logger:     logger,
	}
}

// Close releases the server's resources.
func (s *Server) Close() {
	if err := s.hub.Close(); err != nil {
		s.logger.Warnf("Error closing event hub: %v", err)
	}
	if err := s.kv.Close(); err != nil {
		s.logger.Warnf("Error closing persistence store: %v", err)
	}
}
