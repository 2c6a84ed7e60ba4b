package service

import (
	"context"
	"time"

	maestro "carhub/internal/maestro/core"
	"carhub/internal/maestro/flows"
	"carhub/pkg/client"
	"carhub/pkg/logger"
)

type MaestroService struct {
	engine *maestro.Engine
	client *client.Client
	Logger *logger.Logger
}

func NewMaestroService(client *client.Client, logger *logger.Logger, registered ...maestro.Flow) *MaestroService {
	if len(registered) == 0 {
		registered = flows.All()
	}
	return &MaestroService{
		engine: maestro.NewEngine(registered...),
		client: client,
		Logger: logger,
	}
}

func (s *MaestroService) ExecuteFlow(ctx context.Context, flowName string, input map[string]any) (map[string]any, error) {
	started := time.Now()
	mctx := maestro.NewMaestroContext(ctx, input, s.client, s.Logger)

	if err := s.engine.Run(flowName, mctx); err != nil {
		s.Logger.Warn("flow execution failed", "flow", flowName, "duration", time.Since(started), "error", err)
		return nil, err
	}

	s.Logger.Info("flow executed", "flow", flowName, "duration", time.Since(started))
	return mctx.Output, nil
}

func (s *MaestroService) GetAvailableFlows() []string {
	return s.engine.Names()
}
