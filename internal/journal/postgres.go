package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

// eventRow is one roster event; rows sharing (lobby, version) came from the
// same command.
type eventRow struct {
	ID        uint   `gorm:"primaryKey"`
	Lobby     string `gorm:"size:16;index:idx_roster_events_lobby_version,priority:1;not null"`
	Version   int    `gorm:"index:idx_roster_events_lobby_version,priority:2;not null"`
	Seq       int    `gorm:"not null"`
	Type      string `gorm:"size:32;not null"`
	Payload   string `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
}

func (eventRow) TableName() string { return "roster_events" }

type Postgres struct {
	db  *gorm.DB
	log *zap.Logger
}

// OpenPostgres connects through gorm's pgx-backed driver and migrates the
// events table.
func OpenPostgres(dsn string, log *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("journal: open postgres: %w", err)
	}
	if err := db.AutoMigrate(&eventRow{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Postgres{db: db, log: log}, nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	if len(e.Events) == 0 {
		return nil
	}
	rows := make([]eventRow, 0, len(e.Events))
	for i, ev := range e.Events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("journal: encode %s: %w", ev.Type, err)
		}
		rows = append(rows, eventRow{
			Lobby:     e.Lobby,
			Version:   e.Version,
			Seq:       i,
			Type:      string(ev.Type),
			Payload:   string(payload),
			CreatedAt: e.At,
		})
	}
	if err := p.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("journal: insert %d events for %s: %w", len(rows), e.Lobby, err)
	}
	return nil
}

func (p *Postgres) Entries(ctx context.Context, lobby string) ([]Entry, error) {
	var rows []eventRow
	err := p.db.WithContext(ctx).
		Where("lobby = ?", lobby).
		Order("version, seq").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("journal: query %s: %w", lobby, err)
	}

	var out []Entry
	for _, r := range rows {
		var ev roster.Event
		if err := json.Unmarshal([]byte(r.Payload), &ev); err != nil {
			p.log.Warn("skipping undecodable journal row", zap.Uint("id", r.ID), zap.Error(err))
			continue
		}
		if n := len(out); n > 0 && out[n-1].Version == r.Version {
			out[n-1].Events = append(out[n-1].Events, ev)
			continue
		}
		out = append(out, Entry{Lobby: r.Lobby, Version: r.Version, Events: []roster.Event{ev}, At: r.CreatedAt})
	}
	return out, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("journal: close: %w", err)
	}
	return sqlDB.Close()
}
