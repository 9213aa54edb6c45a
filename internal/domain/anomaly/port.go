package anomaly

import (
	"context"
)

// Repository defines persistence for accounting anomalies
type Repository interface {
	Save(ctx context.Context, a *Anomaly) error
	ListByOperator(ctx context.Context, operatorID string, limit int) ([]*Anomaly, error)
}
