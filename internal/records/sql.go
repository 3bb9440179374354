package records

import (
	"context"
	"errors"
	"fmt"

	"sofia/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLBackend stores records in the user_records table.
type SQLBackend struct {
	db *gorm.DB
}

// NewSQLBackend creates a backend over an open gorm connection.
func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func (s *SQLBackend) Load(ctx context.Context, namespace string, kind Kind) ([]byte, error) {
	var rec models.UserRecord
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND kind = ?", namespace, string(kind)).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordMissing
		}
		return nil, fmt.Errorf("load %s/%s: %w", namespace, kind, err)
	}
	return []byte(rec.Payload), nil
}

func (s *SQLBackend) Save(ctx context.Context, namespace string, kind Kind, payload []byte) error {
	rec := models.UserRecord{
		Namespace: namespace,
		Kind:      string(kind),
		Payload:   string(payload),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", namespace, kind, err)
	}
	return nil
}

func (s *SQLBackend) Delete(ctx context.Context, namespace string, kind Kind) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND kind = ?", namespace, string(kind)).
		Delete(&models.UserRecord{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, kind, err)
	}
	return nil
}
