package workflow

import (
	"context"

	"github.com/genautech/rewards_backend/config"
	"github.com/genautech/rewards_backend/models"
	"github.com/sirupsen/logrus"
)

// ReplicationRecorder appends replication logs. A failed write is logged and
// returned for the caller to report; it never undoes the replication.
type ReplicationRecorder struct {
	logs   models.ReplicationLogRepository
	logger *logrus.Logger
}

func NewReplicationRecorder(logs models.ReplicationLogRepository, logger *logrus.Logger) *ReplicationRecorder {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &ReplicationRecorder{logs: logs, logger: logger}
}

func (r *ReplicationRecorder) Record(ctx context.Context, entry *models.ReplicationLog) error {
	if err := r.logs.CreateLog(ctx, entry); err != nil {
		config.LogError(r.logger, "ReplicationRecorder", "Record", "writing replication log", map[string]interface{}{
			"action":     entry.Action,
			"company_id": entry.CompanyId,
			"budget_id":  entry.BudgetId,
		}, err)
		return err
	}
	return nil
}
