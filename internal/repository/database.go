package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ChamCong/internal/model"
	"ChamCong/storage/database"
)

const stateDocumentKey = "attendance"

// DatabaseRepository 把状态文档存为 state_documents 表的单行 jsonb。
type DatabaseRepository struct {
	db *gorm.DB
}

func NewDatabaseRepository(db *gorm.DB) *DatabaseRepository {
	return &DatabaseRepository{db: db}
}

func (r *DatabaseRepository) Load(ctx context.Context) (*model.StateDocument, error) {
	var record database.StateRecord
	err := r.db.WithContext(ctx).
		Where("key = ?", stateDocumentKey).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.NewStateDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state document: %w", err)
	}

	doc := model.NewStateDocument()
	if err := json.Unmarshal([]byte(record.Document), doc); err != nil {
		return nil, fmt.Errorf("failed to decode state document: %w", err)
	}
	return doc, nil
}

func (r *DatabaseRepository) Save(ctx context.Context, doc *model.StateDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode state document: %w", err)
	}

	record := database.StateRecord{
		Key:       stateDocumentKey,
		Document:  string(raw),
		UpdatedAt: time.Now(),
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save state document: %w", err)
	}
	return nil
}
