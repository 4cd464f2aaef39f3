package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// Invocation records a message that was processed as a command.
type Invocation struct {
	bun.BaseModel `bun:"table:invocations,alias:inv"`

	ID        int64        `bun:",pk,autoincrement"`
	MessageID snowflake.ID `bun:",notnull"`
	ChannelID snowflake.ID `bun:",notnull"`
	GuildID   snowflake.ID `bun:",nullzero"` // Zero in direct messages
	AuthorID  snowflake.ID `bun:",notnull"`
	Command   string       `bun:",nullzero"` // Empty when no command matched
	Prefix    string       `bun:",notnull"`
	CreatedAt time.Time    `bun:",notnull,default:current_timestamp"`
}

// Blame links a message sent by the bot to the invocation that caused it.
type Blame struct {
	bun.BaseModel `bun:"table:blame,alias:bl"`

	MessageID    snowflake.ID `bun:",pk"`
	ChannelID    snowflake.ID `bun:",notnull"`
	GuildID      snowflake.ID `bun:",nullzero"`
	InvocationID int64        `bun:",nullzero"`
	Invocation   *Invocation  `bun:"rel:belongs-to,join:invocation_id=id"`
}
