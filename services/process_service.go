package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"pageCraftNN/internal/schema"
	"pageCraftNN/internal/transform"
	"pageCraftNN/internal/types/canvas"
)

// Observer receives the diagnostic counts of a successful transform. It
// cannot change the result.
type Observer func(ctx context.Context, stats transform.Stats)

type ProcessService struct {
	validator   *schema.Validator
	transformer *transform.Transformer
	logger      *zap.Logger
	observers   []Observer
}

func NewProcessService(validator *schema.Validator, transformer *transform.Transformer, logger *zap.Logger, observers ...Observer) *ProcessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessService{
		validator:   validator,
		transformer: transformer,
		logger:      logger,
		observers:   observers,
	}
}

// Process decodes a request envelope, transforms its payload and returns
// the response envelope. Schema failures come back as *schema.ValidationError
// and depth failures as *transform.DepthExceededError.
func (s *ProcessService) Process(ctx context.Context, body []byte) (*canvas.ProcessResponse, transform.Stats, error) {
	req, err := s.validator.DecodeRequest(body)
	if err != nil {
		s.logRejected(err)
		return nil, transform.Stats{}, err
	}

	processed, stats, err := s.ProcessWork(ctx, req.Payload)
	if err != nil {
		return nil, transform.Stats{}, err
	}
	return &canvas.ProcessResponse{ProcessedPayload: processed}, stats, nil
}

// ProcessBare is Process for a SavedWork that is not wrapped in an envelope.
func (s *ProcessService) ProcessBare(ctx context.Context, body []byte) (canvas.SavedWork, transform.Stats, error) {
	work, err := s.validator.DecodeWork(body)
	if err != nil {
		s.logRejected(err)
		return canvas.SavedWork{}, transform.Stats{}, err
	}
	return s.ProcessWork(ctx, *work)
}

func (s *ProcessService) ProcessWork(ctx context.Context, work canvas.SavedWork) (canvas.SavedWork, transform.Stats, error) {
	processed, stats, err := s.transformer.Work(work)
	if err != nil {
		s.logger.Warn("transform rejected", zap.Error(err))
		return canvas.SavedWork{}, transform.Stats{}, err
	}

	for _, observe := range s.observers {
		observe(ctx, stats)
	}
	return processed, stats, nil
}

func (s *ProcessService) logRejected(err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		s.logger.Info("payload rejected", zap.Int("field_errors", len(verr.Fields)), zap.Error(err))
		return
	}
	s.logger.Info("payload rejected", zap.Error(err))
}
