package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/models"
	"gorm.io/gorm"
)

// PurgeSystemLogs deletes persisted log records older than retention and
// returns how many were removed.
func PurgeSystemLogs(ctx context.Context, db *gorm.DB, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge system logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
