// Package partition plans deterministic, non-overlapping slices of a
// filtered message listing so large exports can be fetched piecemeal and
// still reproduce the exact row set seen at planning time.
package partition

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shyndman/whatsapp-mcp/internal/cursor"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

// ErrInvalidSize is returned for a partition size below 1.
var ErrInvalidSize = errors.New("partition size must be at least 1")

// Partition describes one replayable slice: the filter frozen at planning
// time, the cursor to resume from ("" for the first slice), the exact number
// of rows the slice held when planned, and the shared snapshot bound.
type Partition struct {
	Filter     store.MessageFilter `json:"-"`
	After      *time.Time          `json:"after,omitempty"`
	Before     *time.Time          `json:"before,omitempty"`
	Sender     string              `json:"sender,omitempty"`
	ChatJID    string              `json:"chat_jid,omitempty"`
	Query      string              `json:"query,omitempty"`
	Cursor     string              `json:"cursor,omitempty"`
	Limit      int                 `json:"limit"`
	SnapshotAt time.Time           `json:"snapshot_at"`
}

// Plan is the full partitioning of a filtered listing at one snapshot
// instant. Replaying every partition in order yields exactly TotalCount rows,
// byte-for-byte the rows that existed when the plan was made.
type Plan struct {
	ID         string      `json:"id"`
	TotalCount int         `json:"total_count"`
	SnapshotAt *time.Time  `json:"snapshot_at,omitempty"`
	Partitions []Partition `json:"partitions"`
}

// KeySource is the subset of the archive store the planner reads. Planning
// touches keys and counts only, never full rows.
type KeySource interface {
	MaxMessageTimestamp(f store.MessageFilter) (*time.Time, error)
	CountMessages(f store.MessageFilter) (int, error)
	ListMessageKeys(f store.MessageFilter, limit int) ([]store.MessageKey, error)
}

// Planner builds partition plans over the archive.
type Planner struct {
	db     KeySource
	logger *zap.Logger
}

func NewPlanner(db KeySource, logger *zap.Logger) *Planner {
	return &Planner{db: db, logger: logger}
}

// Plan partitions the rows matching the filter into slices of at most size
// rows. The newest matching timestamp becomes the snapshot bound shared by
// every slice, so rows arriving after planning never shift the partitions.
// No filter matches yield an empty plan, not an error.
func (p *Planner) Plan(f store.MessageFilter, size int) (*Plan, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	plan := &Plan{ID: uuid.NewString()}

	snapshot, err := p.db.MaxMessageTimestamp(f)
	if err != nil {
		return nil, fmt.Errorf("plan snapshot: %w", err)
	}
	if snapshot == nil {
		return plan, nil
	}
	bounded := f
	bounded.SnapshotAt = snapshot
	plan.SnapshotAt = snapshot

	total, err := p.db.CountMessages(bounded)
	if err != nil {
		return nil, fmt.Errorf("plan count: %w", err)
	}
	plan.TotalCount = total

	var resume *cursor.Cursor
	for {
		slice := bounded
		slice.Cursor = resume
		keys, err := p.db.ListMessageKeys(slice, size)
		if err != nil {
			return nil, fmt.Errorf("plan keys: %w", err)
		}
		if len(keys) == 0 {
			break
		}

		part := Partition{
			Filter:     slice,
			After:      f.After,
			Before:     f.Before,
			Sender:     f.Sender,
			ChatJID:    f.ChatJID,
			Query:      f.Query,
			Limit:      len(keys),
			SnapshotAt: snapshot.UTC(),
		}
		if resume != nil {
			part.Cursor = cursor.Encode(resume.Timestamp, resume.ID)
		}
		plan.Partitions = append(plan.Partitions, part)

		if len(keys) < size {
			break
		}
		last := keys[len(keys)-1]
		resume = &cursor.Cursor{Timestamp: last.Timestamp, ID: last.ID}
	}

	p.logger.Debug("partition plan built",
		zap.String("plan_id", plan.ID),
		zap.Int("total", plan.TotalCount),
		zap.Int("partitions", len(plan.Partitions)))
	return plan, nil
}
