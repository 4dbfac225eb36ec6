package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type sessionEntryRecord struct {
	bun.BaseModel `bun:"table:apiclient_session_entries,alias:ase"`

	ID        string    `bun:"id,pk"`
	EntryKey  string    `bun:"entry_key,notnull"`
	Value     []byte    `bun:"value,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
