package infrastructure

import (
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// OpenMySQL opens the ingestion database and migrates its tables.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	if err := db.AutoMigrate(&TransactionModel{}, &OutboxMessageModel{}); err != nil {
		return nil, errors.Wrap(err, "migrate transactions schema")
	}
	return db, nil
}
