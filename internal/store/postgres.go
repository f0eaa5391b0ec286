package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagen/guidevault/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) ClearChannels(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM channels`); err != nil {
		return fmt.Errorf("ClearChannels: %w", err)
	}
	return nil
}

func (p *Postgres) AddChannels(ctx context.Context, channels []models.ChannelEntry) error {
	if len(channels) == 0 {
		return nil
	}
	_, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"channels"},
		[]string{"xui_id", "tvg_id", "tvg_name", "tvg_logo", "group_title", "url", "country", "created_at"},
		pgx.CopyFromSlice(len(channels), func(i int) ([]any, error) {
			c := channels[i]
			return []any{c.XuiID, c.TvgID, c.TvgName, c.TvgLogo, c.GroupTitle, c.URL, c.Country, c.CreatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("AddChannels: %w", err)
	}
	return nil
}

func (p *Postgres) GetChannelEntries(ctx context.Context) ([]models.ChannelEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT xui_id, tvg_id, tvg_name, tvg_logo, group_title, url, country, created_at
		 FROM channels`)
	if err != nil {
		return nil, fmt.Errorf("GetChannelEntries: %w", err)
	}
	defer rows.Close()

	var out []models.ChannelEntry
	for rows.Next() {
		var c models.ChannelEntry
		if err := rows.Scan(&c.XuiID, &c.TvgID, &c.TvgName, &c.TvgLogo,
			&c.GroupTitle, &c.URL, &c.Country, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetChannelEntries scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetChannelEntries rows: %w", err)
	}
	return out, nil
}

func (p *Postgres) ClearProgrammes(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM programmes`); err != nil {
		return fmt.Errorf("ClearProgrammes: %w", err)
	}
	return nil
}

func (p *Postgres) AddProgrammes(ctx context.Context, programmes []models.ProgrammeEntry) error {
	if len(programmes) == 0 {
		return nil
	}
	_, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"programmes"},
		programmeColumns,
		pgx.CopyFromSlice(len(programmes), func(i int) ([]any, error) {
			return programmeRow(programmes[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("AddProgrammes: %w", err)
	}
	return nil
}

func (p *Postgres) ProgrammeCoverage(ctx context.Context) (time.Time, time.Time, int64, error) {
	var min, max *time.Time
	var n int64
	err := p.pool.QueryRow(ctx,
		`SELECT MIN(start_at), MAX(stop_at), COUNT(*) FROM programmes`).Scan(&min, &max, &n)
	if err != nil {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("ProgrammeCoverage: %w", err)
	}
	if n == 0 || min == nil || max == nil {
		return time.Time{}, time.Time{}, 0, nil
	}
	return *min, *max, n, nil
}

// ReplaceChannels clears and re-inserts the channel set in one transaction.
func (p *Postgres) ReplaceChannels(ctx context.Context, channels []models.ChannelEntry) error {
	return p.replace(ctx, "channels", func(tx pgx.Tx) error {
		if len(channels) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"channels"},
			[]string{"xui_id", "tvg_id", "tvg_name", "tvg_logo", "group_title", "url", "country", "created_at"},
			pgx.CopyFromSlice(len(channels), func(i int) ([]any, error) {
				c := channels[i]
				return []any{c.XuiID, c.TvgID, c.TvgName, c.TvgLogo, c.GroupTitle, c.URL, c.Country, c.CreatedAt}, nil
			}),
		)
		return err
	})
}

// ReplaceProgrammes clears and re-inserts the programme set in one transaction.
func (p *Postgres) ReplaceProgrammes(ctx context.Context, programmes []models.ProgrammeEntry) error {
	return p.replace(ctx, "programmes", func(tx pgx.Tx) error {
		if len(programmes) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"programmes"},
			programmeColumns,
			pgx.CopyFromSlice(len(programmes), func(i int) ([]any, error) {
				return programmeRow(programmes[i]), nil
			}),
		)
		return err
	})
}

func (p *Postgres) replace(ctx context.Context, table string, insert func(tx pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replace %s: begin: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("replace %s: clear: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return fmt.Errorf("replace %s: insert: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("replace %s: commit: %w", table, err)
	}
	return nil
}

var programmeColumns = []string{
	"start_at", "stop_at", "start_epoch", "stop_epoch", "channel",
	"title", "description", "category", "subtitle", "episode_num",
	"season", "episode", "icon", "image", "air_date",
	"previously_shown", "created_at",
}

func programmeRow(pr models.ProgrammeEntry) []any {
	return []any{
		pr.Start, pr.Stop, pr.StartEpoch, pr.StopEpoch, pr.Channel,
		pr.Title, pr.Description, pr.Category, pr.Subtitle, pr.EpisodeNum,
		pr.Season, pr.Episode, pr.Icon, pr.Image, pr.Date,
		pr.PreviouslyShown, pr.CreatedAt,
	}
}
