package infrastructure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"fraudengine/internal/transactions/domain"
)

// GormTransactionRepository is the GORM implementation of
// domain.TransactionRepository.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Add(ctx context.Context, tx *domain.Transaction) error {
	model, err := toTransactionModel(tx)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var model TransactionModel
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return toDomainTransaction(&model)
}

func (r *GormTransactionRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error) {
	var model TransactionModel
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return toDomainTransaction(&model)
}

// GormOutboxRepository is the GORM implementation of domain.OutboxRepository.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Add(ctx context.Context, msg *domain.OutboxMessage) error {
	model := toOutboxModel(msg)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *GormOutboxRepository) FetchUnprocessed(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	var models []OutboxMessageModel
	err := r.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	messages := make([]domain.OutboxMessage, 0, len(models))
	for i := range models {
		msg, err := toDomainOutbox(&models[i])
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *GormOutboxRepository) MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return r.db.WithContext(ctx).
		Model(&OutboxMessageModel{}).
		Where("id IN ?", raw).
		Update("processed_at", at).Error
}

// GormUnitOfWork runs a function inside a single database transaction,
// handing it repositories bound to that transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos domain.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(domain.Repos{
			Transactions: NewGormTransactionRepository(tx),
			Outbox:       NewGormOutboxRepository(tx),
		})
	})
}
