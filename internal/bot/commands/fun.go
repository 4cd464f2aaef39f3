package commands

import (
	"math/rand/v2"
	"slices"

	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/i10n"
	"github.com/nanikabot/nanika/pkg/utils"
)

// EightBallAnswers are what the 8ball may reply.
var EightBallAnswers = []string{
	"It is certain.",
	"It is decidedly so.",
	"Without a doubt.",
	"Yes - definitely.",
	"You may rely on it.",
	"As I see it, no.",
	"I'm not sure.",
	"Ask again later.",
	"Better not tell you now.",
	"Cannot predict now.",
	"Concentrate and ask again.",
	"Don't count on it.",
	"My reply is no.",
	"I don't think so.",
	"Very doubtful.",
	"No.",
}

func eightBallCommand() *command.Command {
	return &command.Command{
		Name:        "8ball",
		Aliases:     []string{"eightball", "magic8ball"},
		Description: "ask the magic 8ball",
		Category:    CategoryFun,
		Params:      []command.Param{{Name: "question", Rest: true}},
		Run: func(c *command.Context) error {
			answer := EightBallAnswers[rand.IntN(len(EightBallAnswers))]
			_, err := c.Say(utils.ShortenMessage(c.T("eightball.reply", i10n.Params{
				"question": c.Args.String("question"),
				"answer":   answer,
			})))
			return err
		},
	}
}

func choiceCommand() *command.Command {
	return &command.Command{
		Name:        "choice",
		Aliases:     []string{"choose"},
		Description: "pick something at random",
		Category:    CategoryFun,
		Params:      []command.Param{{Name: "choices", Variadic: true}},
		Run: func(c *command.Context) error {
			choices := c.Args.Strings("choices")
			_, err := c.Say(utils.ShortenMessage(choices[rand.IntN(len(choices))]))
			return err
		},
	}
}

func fateCommand() *command.Command {
	return &command.Command{
		Name: "fate",
		Description: "like choice, but the outcome is the same every time " +
			"depending on your discord ID",
		Category: CategoryFun,
		Params:   []command.Param{{Name: "choices", Variadic: true}},
		Run: func(c *command.Context) error {
			_, err := c.Say(utils.ShortenMessage(Fate(uint64(c.Author().ID), c.Args.Strings("choices"))))
			return err
		},
	}
}

// Fate picks one of choices. The same seed and choices in any order always
// give the same pick.
func Fate(seed uint64, choices []string) string {
	sorted := slices.Clone(choices)
	slices.Sort(sorted)

	return sorted[seeded(seed).IntN(len(sorted))]
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
