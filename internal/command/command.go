// Package command maps raw message text onto the bot's closed command
// vocabulary. Parsing is total: every input yields exactly one Command.
package command

import "strings"

type Kind int

const (
	Unknown Kind = iota
	Default
	FindCity
	SetDefaultCity
	Start
	Cancel
	Schedule
	CurrentDefaultCity
	CurrentOffset
	UnSchedule
	SetOffset
)

// Command is the normalized intent extracted from a message. Text carries
// the mention-stripped, trimmed original only for Unknown.
type Command struct {
	Kind Kind
	Text string
}

// Parser strips the configured bot mention before matching, so commands
// addressed as "/start@SomeBot" resolve the same as "/start".
type Parser struct {
	Mention string
}

func (p Parser) Parse(text string) Command {
	s := text
	if p.Mention != "" {
		s = strings.ReplaceAll(s, p.Mention, "")
	}
	s = strings.TrimSpace(s)

	switch s {
	case "/start":
		return Command{Kind: Start}
	case "/find_city":
		return Command{Kind: FindCity}
	case "/default":
		return Command{Kind: Default}
	case "/set_default_city":
		return Command{Kind: SetDefaultCity}
	case "/cancel":
		return Command{Kind: Cancel}
	case "/schedule":
		return Command{Kind: Schedule}
	case "/unschedule":
		return Command{Kind: UnSchedule}
	case "/set_offset":
		return Command{Kind: SetOffset}
	case "/current_default_city":
		return Command{Kind: CurrentDefaultCity}
	case "/current_offset":
		return Command{Kind: CurrentOffset}
	default:
		return Command{Kind: Unknown, Text: s}
	}
}
