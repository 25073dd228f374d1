package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"questionnairebot/pkg/config"
)

type surveyResponse struct {
	ID                int64     `gorm:"primaryKey"`
	UserID            int64     `gorm:"not null;index"`
	FullName          string    `gorm:"size:255;not null"`
	BirthDate         time.Time `gorm:"type:date;not null"`
	Citizenship       string    `gorm:"size:100;not null"`
	PhoneNumber       *string   `gorm:"size:32"`
	Email             *string   `gorm:"size:255"`
	Address           *string   `gorm:"size:255"`
	PassportSeries    *string   `gorm:"size:4"`
	PassportNumber    *string   `gorm:"size:6"`
	PassportIssuedBy  *string   `gorm:"size:255"`
	PassportIssueDate *string   `gorm:"size:10"`
	INN               *string   `gorm:"column:inn;size:12"`
	SNILS             *string   `gorm:"column:snils;size:14"`
	Education         *string   `gorm:"size:64"`
	Occupation        *string   `gorm:"size:64"`
	IncomeLevel       *string   `gorm:"size:32"`
	MaritalStatus     *string   `gorm:"size:64"`
	ChildrenCount     *int
	CreatedAt         time.Time `gorm:"index"`
}

func (surveyResponse) TableName() string {
	return "survey_responses"
}

// fillerColumns are left NULL in narrow schema mode.
var fillerColumns = []string{
	"phone_number", "email", "address",
	"passport_series", "passport_number", "passport_issued_by", "passport_issue_date",
	"inn", "snils", "education", "occupation", "income_level", "marital_status", "children_count",
}

func toRow(rec SurveyRecord) surveyResponse {
	f := rec.Filler
	children := f.ChildrenCount
	return surveyResponse{
		UserID:            rec.UserID,
		FullName:          rec.FullName,
		BirthDate:         rec.BirthDate,
		Citizenship:       rec.Citizenship,
		PhoneNumber:       &f.PhoneNumber,
		Email:             &f.Email,
		Address:           &f.Address,
		PassportSeries:    &f.PassportSeries,
		PassportNumber:    &f.PassportNumber,
		PassportIssuedBy:  &f.PassportIssuedBy,
		PassportIssueDate: &f.PassportIssueDate,
		INN:               &f.INN,
		SNILS:             &f.SNILS,
		Education:         &f.Education,
		Occupation:        &f.Occupation,
		IncomeLevel:       &f.IncomeLevel,
		MaritalStatus:     &f.MaritalStatus,
		ChildrenCount:     &children,
		CreatedAt:         rec.CreatedAt,
	}
}

func fromRow(row surveyResponse) SurveyRecord {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	rec := SurveyRecord{
		UserID:      row.UserID,
		FullName:    row.FullName,
		BirthDate:   row.BirthDate,
		Citizenship: row.Citizenship,
		CreatedAt:   row.CreatedAt,
	}
	rec.Filler.PhoneNumber = deref(row.PhoneNumber)
	rec.Filler.Email = deref(row.Email)
	rec.Filler.Address = deref(row.Address)
	rec.Filler.PassportSeries = deref(row.PassportSeries)
	rec.Filler.PassportNumber = deref(row.PassportNumber)
	rec.Filler.PassportIssuedBy = deref(row.PassportIssuedBy)
	rec.Filler.PassportIssueDate = deref(row.PassportIssueDate)
	rec.Filler.INN = deref(row.INN)
	rec.Filler.SNILS = deref(row.SNILS)
	rec.Filler.Education = deref(row.Education)
	rec.Filler.Occupation = deref(row.Occupation)
	rec.Filler.IncomeLevel = deref(row.IncomeLevel)
	rec.Filler.MaritalStatus = deref(row.MaritalStatus)
	if row.ChildrenCount != nil {
		rec.Filler.ChildrenCount = *row.ChildrenCount
	}
	return rec
}

// GormSink writes survey records to PostgreSQL or SQLite through gorm.
type GormSink struct {
	db     *gorm.DB
	narrow bool
	logger *slog.Logger
}

var _ Sink = (*GormSink)(nil)

// Open connects to the configured database and makes sure the table exists:
// embedded migrations for PostgreSQL, AutoMigrate for SQLite.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*GormSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gormCfg := &gorm.Config{
		Logger: gormlogger.New(slog.NewLogLogger(logger.Handler(), slog.LevelWarn), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		if err := runMigrations(cfg.DSN, logger); err != nil {
			return nil, err
		}
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("storage: driver %q is not backed by gorm", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.Driver == config.DriverSQLite {
		// sqlite: one writer at a time
		sqlDB.SetMaxOpenConns(1)
		if err := db.WithContext(ctx).AutoMigrate(&surveyResponse{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to auto-migrate survey_responses: %w", err)
		}
	}

	sink := &GormSink{db: db, narrow: cfg.Schema == config.SchemaNarrow, logger: logger}
	if err := sink.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("db.ready", slog.String("driver", cfg.Driver), slog.String("schema", cfg.Schema))
	return sink, nil
}

// Save inserts rec. In narrow schema mode the filler columns stay NULL.
func (g *GormSink) Save(ctx context.Context, rec SurveyRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	row := toRow(rec)

	tx := g.db.WithContext(ctx)
	if g.narrow {
		tx = tx.Omit(fillerColumns...)
	}
	if err := tx.Create(&row).Error; err != nil {
		return 0, sinkError("save", err)
	}
	g.logger.Debug("db.saved", slog.Int64("id", row.ID), slog.Int64("user_id", rec.UserID))
	return row.ID, nil
}

// ByUser returns the records of userID, oldest first.
func (g *GormSink) ByUser(ctx context.Context, userID int64) ([]SurveyRecord, error) {
	var rows []surveyResponse
	if err := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, sinkError("by_user", err)
	}
	out := make([]SurveyRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (g *GormSink) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&surveyResponse{}).Count(&n).Error; err != nil {
		return 0, sinkError("count", err)
	}
	return n, nil
}

func (g *GormSink) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return sinkError("ping", err)
	}
	return sinkError("ping", sqlDB.PingContext(ctx))
}

func (g *GormSink) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return sinkError("close", err)
	}
	return sinkError("close", sqlDB.Close())
}

// New opens the sink selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Sink, error) {
	if cfg.Driver == config.DriverMemory {
		return NewMemorySink(), nil
	}
	return Open(ctx, cfg, logger)
}
