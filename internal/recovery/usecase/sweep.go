package usecase

import (
	"context"
	"log/slog"
)

// Sweep deletes codes and attempts past their retention. Expiry is enforced
// at read time, so a late or skipped sweep only leaves dead rows behind.
func (s *Usecase) Sweep(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Sweep")
	defer span.End()

	now := s.clock.Now()

	res, err := s.repoDB.DeleteStale(ctx, now.Add(-s.codeTTL()), now.Add(-s.issueLimit().Window))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete stale codes", "error", err)
		return err
	}

	if res.Codes > 0 || res.Attempts > 0 {
		slog.DebugContext(ctx, "swept one-time codes", "codes", res.Codes, "attempts", res.Attempts)
	}

	return nil
}
