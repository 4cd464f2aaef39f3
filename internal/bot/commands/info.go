package commands

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/pkg/utils"
	"go.uber.org/zap"
)

const (
	cdnURL     = "https://cdn.discordapp.com"
	avatarSize = "2048"
)

// TimestampStyles are the styles of Discord timestamp markdown.
var TimestampStyles = []string{"f", "F", "d", "D", "t", "T", "R"}

func httpCatCommand() *command.Command {
	return &command.Command{
		Name:        "httpcat",
		Description: "http status code as a cat",
		Category:    CategoryInternet,
		Params:      []command.Param{{Name: "status_code", Rest: true}},
		Run: func(c *command.Context) error {
			code, err := strconv.Atoi(c.Args.String("status_code"))
			if err != nil {
				return command.NewUserError("couldnt understand `status_code`")
			}

			_, err = c.Say(utils.ShortenMessage(`\* https://http.cat/` + strconv.Itoa(code)))
			return err
		},
	}
}

func unixCommand() *command.Command {
	return &command.Command{
		Name:        "unix",
		Description: "unix time now",
		Category:    CategoryUtility,
		Run: func(c *command.Context) error {
			sent := c.Message.CreatedAt
			if sent.IsZero() {
				sent = c.Message.ID.Time()
			}

			_, err := c.Say(UnixTimestamps(sent.Unix()))
			return err
		},
	}
}

// UnixTimestamps lists now followed by each timestamp style, escaped and
// rendered.
func UnixTimestamps(now int64) string {
	lines := []string{strconv.FormatInt(now, 10)}
	for _, style := range TimestampStyles {
		markdown := "<t:" + strconv.FormatInt(now, 10) + ":" + style + ">"
		lines = append(lines, `\`+markdown+" - "+markdown)
	}

	return strings.Join(lines, "\n")
}

func msgRawCommand() *command.Command {
	return &command.Command{
		Name:        "msgraw",
		Description: "show the raw API payload for a message",
		Category:    CategoryUtility,
		Params:      []command.Param{{Name: "message"}},
		Run: func(c *command.Context) error {
			msg, err := fetchMessage(c, c.Args.String("message"))
			if err != nil {
				return err
			}

			return sendPayload(c, msg)
		},
	}
}

func userRawCommand() *command.Command {
	return &command.Command{
		Name:        "userraw",
		Description: "show the raw API payload for a user",
		Category:    CategoryUtility,
		Params:      []command.Param{{Name: "user", Rest: true, Optional: true}},
		Run: func(c *command.Context) error {
			arg := c.Args.String("user")
			if arg == "" {
				arg = c.Author().ID.String()
			}

			user, err := fetchUser(c, arg)
			if err != nil {
				return err
			}

			return sendPayload(c, user)
		},
	}
}

// sendPayload sends v as indented JSON.
func sendPayload(c *command.Context, v any) error {
	payload, err := sonic.ConfigStd.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}

	_, err = c.SendCodeblock(utils.Codeblock{Code: string(payload), Language: "json", Fenced: true}, "")

	return err
}

func avatarCommand() *command.Command {
	return &command.Command{
		Name:    "avatar",
		Aliases: []string{"avy"},
		Description: "show user avatar\n" +
			"incl. links for other formats\n" +
			"type a specifier afterwards to only show a certain type of avatar\n" +
			". -> resolves to guild, global or default\n" +
			"* -> global or default\n" +
			"- -> default avatar",
		Category: CategoryUtility,
		Params: []command.Param{
			{Name: "spec", Optional: true, Accept: func(word string) bool {
				return word == "*" || word == "." || word == "-"
			}},
			{Name: "user", Rest: true, Optional: true},
		},
		Run: runAvatar,
	}
}

func runAvatar(c *command.Context) error {
	spec := c.Args.String("spec")
	guildID, inGuild := c.GuildID()

	if spec == "." && !inGuild {
		_, err := c.Say(c.T("avatar.direct_message"))
		return err
	}

	user, err := fetchUser(c, c.Args.String("user"))
	if err != nil {
		return err
	}

	var candidates []Avatar
	if spec == "" || spec == "." {
		if inGuild {
			member, err := c.Env().Rest.GetMember(guildID, user.ID)
			if err != nil {
				c.Logger().Debug("Failed to fetch member for guild avatar", zap.Error(err))
			} else if member.Avatar != nil {
				candidates = append(candidates, GuildAvatar(guildID, user.ID, *member.Avatar))
			}
		}
	}
	if spec != "-" && user.Avatar != nil {
		candidates = append(candidates, UserAvatar(user.ID, *user.Avatar))
	}
	candidates = append(candidates, DefaultAvatar(*user))

	_, err = c.Say(candidates[0].Links())

	return err
}

// Avatar is an image on the Discord CDN.
type Avatar struct {
	path     string
	animated bool
	fixed    bool
}

// GuildAvatar is the avatar a member set for one guild.
func GuildAvatar(guildID, userID snowflake.ID, hash string) Avatar {
	return Avatar{
		path:     "/guilds/" + guildID.String() + "/users/" + userID.String() + "/avatars/" + hash,
		animated: strings.HasPrefix(hash, "a_"),
	}
}

// UserAvatar is the global avatar of a user.
func UserAvatar(userID snowflake.ID, hash string) Avatar {
	return Avatar{
		path:     "/avatars/" + userID.String() + "/" + hash,
		animated: strings.HasPrefix(hash, "a_"),
	}
}

// DefaultAvatar is the avatar of a user without one.
func DefaultAvatar(user discord.User) Avatar {
	var index uint64
	if discriminator, err := strconv.Atoi(user.Discriminator); err == nil && discriminator != 0 {
		index = uint64(discriminator % 5)
	} else {
		index = (uint64(user.ID) >> 22) % 6
	}

	return Avatar{path: "/embed/avatars/" + strconv.FormatUint(index, 10), fixed: true}
}

// Formats are the file formats the avatar is available in.
func (a Avatar) Formats() []string {
	switch {
	case a.fixed:
		return []string{"png"}
	case a.animated:
		return []string{"gif"}
	default:
		return []string{"png", "jpg", "webp"}
	}
}

// URL links to the avatar in format.
func (a Avatar) URL(format string) string {
	url := cdnURL + a.path + "." + format
	if a.fixed {
		return url
	}

	return url + "?size=" + avatarSize
}

// Links lists a link per format. Only the first one embeds.
func (a Avatar) Links() string {
	formats := a.Formats()
	links := make([]string, 0, len(formats))

	for i, format := range formats {
		if i == 0 {
			links = append(links, "[*"+format+"]("+a.URL(format)+")")
		} else {
			links = append(links, "["+format+"](<"+a.URL(format)+">)")
		}
	}

	return strings.Join(links, " ")
}
