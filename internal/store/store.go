package store

import (
	"context"
	"time"

	"github.com/voyagen/guidevault/internal/models"
)

// Store defines persistence for the channel and programme record sets. Both
// sets follow a replace-on-refresh model: each refresh clears an entity type
// and bulk-inserts the freshly computed set. No per-record upsert exists.
type Store interface {
	// ClearChannels removes every channel entry.
	ClearChannels(ctx context.Context) error
	// AddChannels bulk-inserts channel entries.
	AddChannels(ctx context.Context, channels []models.ChannelEntry) error
	// GetChannelEntries returns the full channel set.
	GetChannelEntries(ctx context.Context) ([]models.ChannelEntry, error)

	// ClearProgrammes removes every programme entry.
	ClearProgrammes(ctx context.Context) error
	// AddProgrammes bulk-inserts programme entries.
	AddProgrammes(ctx context.Context, programmes []models.ProgrammeEntry) error

	// ProgrammeCoverage returns the time span covered by the stored programme
	// set (min start, max stop) and the number of stored programmes. When n
	// is zero the timestamps are zero values.
	ProgrammeCoverage(ctx context.Context) (min, max time.Time, n int64, err error)

	// ReplaceChannels clears and re-inserts the channel set in one
	// transaction, so a reader never sees an empty set mid-refresh.
	ReplaceChannels(ctx context.Context, channels []models.ChannelEntry) error
	// ReplaceProgrammes clears and re-inserts the programme set in one
	// transaction.
	ReplaceProgrammes(ctx context.Context, programmes []models.ProgrammeEntry) error
}
