package infrastructure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"fraudengine/internal/evaluation/domain"
)

// FraudCheckModel maps the fraud_checks table.
type FraudCheckModel struct {
	ID               string `gorm:"type:char(36);primaryKey"`
	TransactionID    string `gorm:"type:char(36);index"`
	AccountID        string `gorm:"type:char(36);index:idx_fraud_checks_account_evaluated"`
	IsFlagged        bool
	OverallRiskScore decimal.Decimal        `gorm:"type:decimal(5,4)"`
	EvaluatedAt      time.Time              `gorm:"index:idx_fraud_checks_account_evaluated"`
	RuleResults      []FraudRuleResultModel `gorm:"foreignKey:FraudCheckID"`
}

func (FraudCheckModel) TableName() string { return "fraud_checks" }

// FraudRuleResultModel maps one rule outcome; Position preserves evaluation
// order.
type FraudRuleResultModel struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	FraudCheckID string `gorm:"type:char(36);index"`
	Position     int
	RuleName     string `gorm:"size:100"`
	Triggered    bool
	RiskScore    decimal.Decimal `gorm:"type:decimal(5,4)"`
	Reason       string          `gorm:"type:text"`
}

func (FraudRuleResultModel) TableName() string { return "fraud_check_rule_results" }

// OpenMySQL opens the rules-engine database and migrates its tables.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	if err := db.AutoMigrate(&FraudCheckModel{}, &FraudRuleResultModel{}); err != nil {
		return nil, errors.Wrap(err, "migrate evaluation schema")
	}
	return db, nil
}

// GormFraudCheckRepository persists fraud checks with their ordered rule
// results and doubles as the transaction history source: the velocity count
// uses fraud_checks as a per-account activity proxy.
type GormFraudCheckRepository struct {
	db *gorm.DB
}

func NewGormFraudCheckRepository(db *gorm.DB) *GormFraudCheckRepository {
	return &GormFraudCheckRepository{db: db}
}

func (r *GormFraudCheckRepository) Add(ctx context.Context, check *domain.FraudCheck) error {
	model := FraudCheckModel{
		ID:               check.ID.String(),
		TransactionID:    check.TransactionID.String(),
		AccountID:        check.AccountID.String(),
		IsFlagged:        check.IsFlagged,
		OverallRiskScore: check.OverallRiskScore,
		EvaluatedAt:      check.EvaluatedAt,
		RuleResults:      make([]FraudRuleResultModel, len(check.RuleResults)),
	}
	for i, rr := range check.RuleResults {
		model.RuleResults[i] = FraudRuleResultModel{
			FraudCheckID: model.ID,
			Position:     i,
			RuleName:     rr.RuleName,
			Triggered:    rr.Triggered,
			RiskScore:    rr.RiskScore,
			Reason:       rr.Reason,
		}
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *GormFraudCheckRepository) RecentTransactionCount(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&FraudCheckModel{}).
		Where("account_id = ? AND evaluated_at >= ?", accountID.String(), since).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count recent transactions")
	}
	return int(count), nil
}
