// Package store persists decision audit records. It ships a gorm-backed
// store (sqlite, postgres, mysql) and an in-memory store for tests and
// simple embedding.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/decisionflow/decision"
	"github.com/BaSui01/decisionflow/types"
)

// DecisionRecord is the persisted form of one terminal decision.
type DecisionRecord struct {
	ID               uint   `gorm:"primaryKey"`
	DecisionID       string `gorm:"uniqueIndex;size:64"`
	RequestDigest    string `gorm:"index;size:64"`
	Status           string `gorm:"size:32"`
	ValueKey         string `gorm:"size:255"`
	Confidence       float64
	Votes            string `gorm:"type:text"`
	AttemptsUsed     int
	AttemptsRejected int
	ElapsedMS        int64
	CreatedAt        time.Time
}

// TableName pins the table name independent of gorm pluralization rules.
func (DecisionRecord) TableName() string { return "decision_records" }

// Open opens a gorm DB for the given driver. Supported drivers:
// sqlite, postgres, mysql.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, types.NewError(types.ErrStoreUnavailable,
			fmt.Sprintf("unsupported store driver %q", driver))
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "open store").WithCause(err)
	}
	return db, nil
}

// GormStore implements decision.AuditStore on a relational database.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore migrates the schema and returns a store.
func NewGormStore(db *gorm.DB, logger *zap.Logger) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&DecisionRecord{}); err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "auto migrate").WithCause(err)
	}
	return &GormStore{
		db:     db,
		logger: logger.With(zap.String("component", "store")),
	}, nil
}

// SaveRecord persists one decision record.
func (s *GormStore) SaveRecord(ctx context.Context, rec *decision.Record) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return types.NewError(types.ErrStoreUnavailable, "save decision record").WithCause(err)
	}
	return nil
}

// ListByDigest returns all records for one request digest, newest first.
func (s *GormStore) ListByDigest(ctx context.Context, digest string) ([]decision.Record, error) {
	var rows []DecisionRecord
	err := s.db.WithContext(ctx).
		Where("request_digest = ?", digest).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "list decision records").WithCause(err)
	}

	records := make([]decision.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(&row)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func toRow(rec *decision.Record) (*DecisionRecord, error) {
	votes, err := json.Marshal(rec.Votes)
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "marshal votes").WithCause(err)
	}
	return &DecisionRecord{
		DecisionID:       rec.DecisionID,
		RequestDigest:    rec.RequestDigest,
		Status:           string(rec.Status),
		ValueKey:         rec.ValueKey,
		Confidence:       rec.Confidence,
		Votes:            string(votes),
		AttemptsUsed:     rec.AttemptsUsed,
		AttemptsRejected: rec.AttemptsRejected,
		ElapsedMS:        rec.Elapsed.Milliseconds(),
		CreatedAt:        rec.CreatedAt,
	}, nil
}

func fromRow(row *DecisionRecord) (*decision.Record, error) {
	var votes decision.VoteDistribution
	if row.Votes != "" {
		if err := json.Unmarshal([]byte(row.Votes), &votes); err != nil {
			return nil, types.NewError(types.ErrStoreUnavailable, "unmarshal votes").WithCause(err)
		}
	}
	return &decision.Record{
		DecisionID:       row.DecisionID,
		RequestDigest:    row.RequestDigest,
		Status:           decision.Status(row.Status),
		ValueKey:         row.ValueKey,
		Confidence:       row.Confidence,
		Votes:            votes,
		AttemptsUsed:     row.AttemptsUsed,
		AttemptsRejected: row.AttemptsRejected,
		Elapsed:          time.Duration(row.ElapsedMS) * time.Millisecond,
		CreatedAt:        row.CreatedAt,
	}, nil
}
