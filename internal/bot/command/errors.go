package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/nanikabot/nanika/pkg/utils"
)

var (
	// ErrGuildOnly is returned when a guild command is used in direct messages.
	ErrGuildOnly = errors.New("command only works in guilds")
	// ErrNotOwner is returned when an owner command is used by someone else.
	ErrNotOwner = errors.New("command is for bot owners")
)

// MaxCountedArguments caps how many extra arguments are counted.
const MaxCountedArguments = 10

// UserError is a mistake by the user. Its text is sent back as is.
type UserError struct {
	Message string
}

// NewUserError creates a UserError.
func NewUserError(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

func (e *UserError) Error() string {
	return e.Message
}

// MissingArgumentError is returned when a required param got no value.
type MissingArgumentError struct {
	Param string
}

func (e *MissingArgumentError) Error() string {
	return "missing argument " + e.Param
}

// TooManyArgumentsError is returned by strict commands given extra input.
type TooManyArgumentsError struct {
	// Count is how many extra words were found, at most MaxCountedArguments+1.
	Count int
}

func (e *TooManyArgumentsError) Error() string {
	return "too many arguments"
}

// MissingPermissionsError is returned when the author lacks permissions.
type MissingPermissionsError struct {
	Missing discord.Permissions
}

func (e *MissingPermissionsError) Error() string {
	return "missing permissions " + e.Missing.String()
}

// CooldownError is returned when the author used a command too often.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return "on cooldown for " + e.RetryAfter.String()
}

// permissionNames are the words used in replies for permissions commands ask for.
var permissionNames = map[discord.Permissions]string{
	discord.PermissionManageGuild:        "manage server",
	discord.PermissionManageMessages:     "manage messages",
	discord.PermissionManageChannels:     "manage channels",
	discord.PermissionManageRoles:        "manage roles",
	discord.PermissionAdministrator:      "administrator",
	discord.PermissionViewChannel:        "view channel",
	discord.PermissionReadMessageHistory: "read message history",
	discord.PermissionSendMessages:       "send messages",
}

func permissionWords(perms discord.Permissions) []string {
	var words []string
	for bit := range 64 {
		p := discord.Permissions(1) << bit
		if perms&p == 0 {
			continue
		}

		if name, ok := permissionNames[p]; ok {
			words = append(words, name)
		} else {
			words = append(words, p.String())
		}
	}

	return words
}

// Reply returns the text sent back for err, and false when err is not
// caused by the user. Empty text means nothing is sent.
func Reply(err error) (string, bool) {
	var (
		userErr      *UserError
		missingArg   *MissingArgumentError
		tooMany      *TooManyArgumentsError
		missingPerms *MissingPermissionsError
		cooldownErr  *CooldownError
	)

	switch {
	case errors.As(err, &userErr):
		return userErr.Message, true
	case errors.Is(err, ErrNotOwner):
		return "", true
	case errors.Is(err, ErrGuildOnly):
		return "only can use this command in a server", true
	case errors.As(err, &missingArg):
		return "argument `" + missingArg.Param + "` missing", true
	case errors.As(err, &tooMany):
		say := "too many arguments"
		if tooMany.Count > 0 {
			n := strconv.Itoa(min(tooMany.Count, MaxCountedArguments))
			if tooMany.Count > MaxCountedArguments {
				n += "+"
			}
			say += " (" + n + " too many)"
		}
		return say, true
	case errors.Is(err, ErrUnexpectedQuote):
		return "unexpected quote somewhere", true
	case errors.Is(err, ErrInvalidQuoteEnd):
		return "spaces should follow quotes", true
	case errors.Is(err, ErrExpectedClosingQuote):
		return "an open quote wasn't closed", true
	case errors.As(err, &missingPerms):
		words := permissionWords(missingPerms.Missing)
		noun := "permission"
		if len(words) > 1 {
			noun += "s"
		}
		return "you need the " + utils.NaturalJoin(words, ", ", "&", false) + " " + noun, true
	case errors.As(err, &cooldownErr):
		seconds := math.Ceil(cooldownErr.RetryAfter.Seconds()*10) / 10
		return "slow down, try again in " + strconv.FormatFloat(seconds, 'f', -1, 64) + "s", true
	default:
		return "", false
	}
}
