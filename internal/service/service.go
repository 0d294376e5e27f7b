// Package service holds the application logic behind the HTTP layer: chat
// turns, order management, and conversation history.
package service

import (
	"github.com/feastline/concierge/internal/config"
	"github.com/feastline/concierge/internal/memory"
	"github.com/feastline/concierge/internal/orchestrator"
	"github.com/feastline/concierge/internal/provider"
	"github.com/feastline/concierge/internal/repository"
)

type Service struct {
	store  *store.SQLiteStore
	orch   *orchestrator.Orchestrator
	memory *memory.Memory
	food   *provider.Client
	config *config.Config
}

func New(st *store.SQLiteStore, orch *orchestrator.Orchestrator, mem *memory.Memory, food *provider.Client, cfg *config.Config) *Service {
	return &Service{
		store:  st,
		orch:   orch,
		memory: mem,
		food:   food,
		config: cfg,
	}
}
