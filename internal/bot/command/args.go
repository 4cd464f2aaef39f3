package command

// ParseArgs reads the params of cmd from view.
func ParseArgs(cmd *Command, view *View) (Args, error) {
	args := Args{values: make(map[string][]string, len(cmd.Params))}

	for _, p := range cmd.Params {
		view.SkipWS()

		switch {
		case p.Rest:
			rest := view.Rest()
			if rest == "" {
				if !p.Optional {
					return Args{}, &MissingArgumentError{Param: p.Name}
				}
				continue
			}
			args.values[p.Name] = []string{rest}

		case p.Variadic:
			for {
				view.SkipWS()
				if view.EOF() {
					break
				}

				word, err := view.QuotedWord()
				if err != nil {
					return Args{}, err
				}
				args.values[p.Name] = append(args.values[p.Name], word)
			}

			if len(args.values[p.Name]) == 0 && !p.Optional {
				return Args{}, &MissingArgumentError{Param: p.Name}
			}

		default:
			if view.EOF() {
				if !p.Optional {
					return Args{}, &MissingArgumentError{Param: p.Name}
				}
				continue
			}

			word, err := view.QuotedWord()
			if err != nil {
				return Args{}, err
			}

			if p.Accept != nil && !p.Accept(word) {
				view.Undo()
				if !p.Optional {
					return Args{}, NewUserError("couldnt understand `%s`", p.Name)
				}
				continue
			}
			args.values[p.Name] = []string{word}
		}
	}

	if cmd.Strict {
		view.SkipWS()
		if !view.EOF() {
			return Args{}, &TooManyArgumentsError{Count: countWords(view.Clone())}
		}
	}

	return args, nil
}

// countWords counts the words left in view, stopping after
// MaxCountedArguments+1 or at the first malformed word.
func countWords(view *View) int {
	n := 0
	for n <= MaxCountedArguments {
		view.SkipWS()
		if view.EOF() {
			break
		}

		if _, err := view.QuotedWord(); err != nil {
			break
		}
		n++
	}

	return n
}

// NewArgs builds Args from values, for callers that run handlers directly.
func NewArgs(values map[string][]string) Args {
	return Args{values: values}
}
