package commands

import (
	"errors"
	"regexp"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/command"
	"go.uber.org/zap"
)

var (
	errNotMessage = errors.New("not a message reference")
	errNotUser    = errors.New("not a user reference")
)

var (
	messageLink = regexp.MustCompile(
		`^<?https?://(?:(?:ptb|canary|www)\.)?discord(?:app)?\.com/channels/(?:\d+|@me)/(\d+)/(\d+)/?>?$`)
	channelMessage = regexp.MustCompile(`^(\d{15,20})-(\d{15,20})$`)
	userMention    = regexp.MustCompile(`^<@!?(\d{15,20})>$`)
	snowflakeID    = regexp.MustCompile(`^\d{15,20}$`)
)

// parseMessageRef reads a message link, a channelID-messageID pair or a bare
// message ID, which is taken to be in defaultChannel.
func parseMessageRef(arg string, defaultChannel snowflake.ID) (channelID, messageID snowflake.ID, err error) {
	if m := messageLink.FindStringSubmatch(arg); m != nil {
		return parseIDs(m[1], m[2])
	}

	if m := channelMessage.FindStringSubmatch(arg); m != nil {
		return parseIDs(m[1], m[2])
	}

	if snowflakeID.MatchString(arg) {
		id, err := snowflake.Parse(arg)
		return defaultChannel, id, err
	}

	return 0, 0, errNotMessage
}

func parseIDs(channel, message string) (snowflake.ID, snowflake.ID, error) {
	channelID, err := snowflake.Parse(channel)
	if err != nil {
		return 0, 0, err
	}

	messageID, err := snowflake.Parse(message)
	if err != nil {
		return 0, 0, err
	}

	return channelID, messageID, nil
}

// parseUserRef reads a user mention or ID.
func parseUserRef(arg string) (snowflake.ID, error) {
	if m := userMention.FindStringSubmatch(arg); m != nil {
		return snowflake.Parse(m[1])
	}

	if snowflakeID.MatchString(arg) {
		return snowflake.Parse(arg)
	}

	return 0, errNotUser
}

// fetchMessage resolves a message argument. Failures are user errors.
func fetchMessage(c *command.Context, arg string) (*discord.Message, error) {
	channelID, messageID, err := parseMessageRef(arg, c.ChannelID())
	if err != nil {
		return nil, &command.UserError{Message: c.T("raw.no_message")}
	}

	msg, err := c.Env().Rest.GetMessage(channelID, messageID)
	if err != nil {
		c.Logger().Debug("Failed to fetch message argument", zap.Error(err))
		return nil, &command.UserError{Message: c.T("raw.no_message")}
	}

	return msg, nil
}

// fetchUser resolves a user argument, the author when arg is empty.
func fetchUser(c *command.Context, arg string) (*discord.User, error) {
	if arg == "" {
		author := c.Author()
		return &author, nil
	}

	userID, err := parseUserRef(arg)
	if err != nil {
		return nil, &command.UserError{Message: c.T("raw.no_user")}
	}

	user, err := c.Env().Rest.GetUser(userID)
	if err != nil {
		c.Logger().Debug("Failed to fetch user argument", zap.Error(err))
		return nil, &command.UserError{Message: c.T("raw.no_user")}
	}

	return user, nil
}

// jumpURL links to a message. A zero guildID links into direct messages.
func jumpURL(guildID, channelID, messageID snowflake.ID) string {
	route := "@me"
	if guildID != 0 {
		route = guildID.String()
	}

	return "https://discord.com/channels/" + route + "/" + channelID.String() + "/" + messageID.String()
}
