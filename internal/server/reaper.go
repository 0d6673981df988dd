package server

import (
	"context"
	"log/slog"
	"time"
)

// PurgeExpiredMedia blanks photo references whose retention deadline has
// passed. The score derived from the photo stays; only the reference to the
// media is dropped.
func (s *SQLiteStore) PurgeExpiredMedia(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET photo_ref = '', delete_media_at = NULL
		WHERE delete_media_at IS NOT NULL AND delete_media_at <= ?
	`, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunMediaReaper purges expired media references on an interval until ctx is
// cancelled.
func RunMediaReaper(ctx context.Context, logger *slog.Logger, store *SQLiteStore, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := store.PurgeExpiredMedia(ctx)
			if err != nil {
				logger.Error("media purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired media references purged", "count", n)
			}
		}
	}
}
