package usecase

import (
	"context"
	"errors"
	"time"

	kdsDomain "github.com/allisson/kds/internal/kds/domain"
	"github.com/allisson/kds/internal/metrics"
)

// kdsUseCaseWithMetrics decorates KDSUseCase with metrics instrumentation.
type kdsUseCaseWithMetrics struct {
	next    KDSUseCase
	metrics metrics.BusinessMetrics
}

// NewKDSUseCaseWithMetrics wraps a KDSUseCase with metrics recording.
func NewKDSUseCaseWithMetrics(useCase KDSUseCase, m metrics.BusinessMetrics) KDSUseCase {
	return &kdsUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (k *kdsUseCaseWithMetrics) GetInfo(ctx context.Context) string {
	return k.next.GetInfo(ctx)
}

func (k *kdsUseCaseWithMetrics) GetSessionKey(
	ctx context.Context,
	req *kdsDomain.SessionRequest,
) (*kdsDomain.SessionReply, error) {
	start := time.Now()
	reply, err := k.next.GetSessionKey(ctx, req)
	k.metrics.RecordOperation(ctx, metrics.OperationSessionKeyGet, outcome(err), time.Since(start))
	return reply, err
}

func (k *kdsUseCaseWithMetrics) SetKey(ctx context.Context, principalID string, secret []byte) error {
	start := time.Now()
	err := k.next.SetKey(ctx, principalID, secret)
	k.metrics.RecordOperation(ctx, metrics.OperationKeySet, outcome(err), time.Since(start))
	return err
}

// outcome separates caller mistakes from server faults.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, kdsDomain.ErrMalformedRequest), errors.Is(err, kdsDomain.ErrUnauthorized):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
