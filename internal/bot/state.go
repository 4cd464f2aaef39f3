package bot

import (
	"time"

	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/jellydator/ttlcache/v3"
)

const (
	// channelTTL forgets channels that went quiet.
	channelTTL = 30 * time.Minute
	// maxTrackedChannels bounds the last message tracker.
	maxTrackedChannels = 10000
)

// cacheState answers permission and locale questions from the gateway cache.
type cacheState struct {
	caches cache.Caches
}

// Member returns the guild permissions of a cached member.
func (s *cacheState) Member(guildID, userID snowflake.ID) (discord.Permissions, bool) {
	member, ok := s.caches.Member(guildID, userID)
	if !ok {
		return 0, false
	}

	return s.caches.MemberPermissions(member), true
}

// SelfInChannel returns what the bot may do in a cached guild channel.
func (s *cacheState) SelfInChannel(guildID, channelID snowflake.ID) (discord.Permissions, bool) {
	self, ok := s.caches.SelfMember(guildID)
	if !ok {
		return 0, false
	}

	channel, ok := s.caches.Channel(channelID)
	if !ok {
		return 0, false
	}

	return s.caches.MemberPermissionsInChannel(channel, self), true
}

// GuildLocale returns the preferred locale of a cached community guild.
func (s *cacheState) GuildLocale(guildID snowflake.ID) (string, bool) {
	guild, ok := s.caches.Guild(guildID)
	if !ok || guild.PreferredLocale == "" {
		return "", false
	}

	return guild.PreferredLocale, true
}

// channelTracker remembers the newest message of recently active channels.
type channelTracker struct {
	last *ttlcache.Cache[snowflake.ID, snowflake.ID]
}

func newChannelTracker() *channelTracker {
	return &channelTracker{
		last: ttlcache.New(
			ttlcache.WithTTL[snowflake.ID, snowflake.ID](channelTTL),
			ttlcache.WithCapacity[snowflake.ID, snowflake.ID](maxTrackedChannels),
			ttlcache.WithDisableTouchOnHit[snowflake.ID, snowflake.ID](),
		),
	}
}

// Seen records messageID as the newest message of channelID.
func (t *channelTracker) Seen(channelID, messageID snowflake.ID) {
	if item := t.last.Get(channelID); item != nil && item.Value() > messageID {
		return
	}

	t.last.Set(channelID, messageID, ttlcache.DefaultTTL)
}

// LastMessage returns the newest message seen in channelID.
func (t *channelTracker) LastMessage(channelID snowflake.ID) (snowflake.ID, bool) {
	item := t.last.Get(channelID)
	if item == nil {
		return 0, false
	}

	return item.Value(), true
}

// Start runs expiry until Stop is called.
func (t *channelTracker) Start() {
	t.last.Start()
}

func (t *channelTracker) Stop() {
	t.last.Stop()
}
