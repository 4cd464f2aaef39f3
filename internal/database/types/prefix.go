package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// GuildPrefixes stores the custom prefixes of a guild. A row with an empty
// list means the guild listens to mentions only, while no row means the
// default prefixes apply.
type GuildPrefixes struct {
	bun.BaseModel `bun:"table:guild_prefixes,alias:gp"`

	GuildID   snowflake.ID `bun:",pk"`
	Prefixes  []string     `bun:",array,notnull"`
	UpdatedAt time.Time    `bun:",notnull,default:current_timestamp"`
}
