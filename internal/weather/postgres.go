package weather

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fieldplan/allocator/internal/domain"
)

// weatherRecordRow is the persisted form of one domain.WeatherRecord,
// scoped to a location key (a weather-station ID or field ID).
type weatherRecordRow struct {
	LocationKey      string    `gorm:"type:varchar(100);primary_key"`
	Date             time.Time `gorm:"primary_key"`
	TempMean         *float64
	TempMax          *float64
	TempMin          *float64
	Precipitation    *float64
	SunshineDuration *float64
	WindSpeed        *float64
}

// TableName specifies the database table name for weatherRecordRow.
func (weatherRecordRow) TableName() string {
	return "weather_records"
}

// PostgresSource is the Postgres-backed reference Source implementation.
type PostgresSource struct {
	db *gorm.DB
}

// NewPostgresSource wraps an existing *gorm.DB connection as a Source.
func NewPostgresSource(db *gorm.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// AutoMigrate creates or updates the weather_records table.
func (p *PostgresSource) AutoMigrate() error {
	return p.db.AutoMigrate(&weatherRecordRow{})
}

// FetchRange implements Source.
func (p *PostgresSource) FetchRange(ctx context.Context, locationKey string, start, end time.Time) ([]domain.WeatherRecord, error) {
	var rows []weatherRecordRow
	err := p.db.WithContext(ctx).
		Where("location_key = ? AND date BETWEEN ? AND ?", locationKey, start, end).
		Order("date asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.WeatherRecord, len(rows))
	for i, row := range rows {
		out[i] = domain.WeatherRecord{
			Date:             row.Date,
			TempMean:         row.TempMean,
			TempMax:          row.TempMax,
			TempMin:          row.TempMin,
			Precipitation:    row.Precipitation,
			SunshineDuration: row.SunshineDuration,
			WindSpeed:        row.WindSpeed,
		}
	}
	return out, nil
}
