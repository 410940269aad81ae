// Package processor is the conversation state machine. Each inbound
// message is matched against the chat's persisted state and the parsed
// command, mutates that state through the repository, and replies through
// the messaging client.
package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-weather-bot/internal/command"
	"telegram-weather-bot/internal/models"
)

// Repository is the slice of the storage layer the state machine drives.
// Operations are individually atomic; nothing here composes them into a
// transaction, so two rapid messages from the same chat can interleave and
// the later write wins.
type Repository interface {
	FindOrCreateChat(chatID, userID int64) (models.Chat, error)
	ModifyState(chatID, userID int64, state models.ClientState) error
	ModifyPending(chatID, userID int64, p models.Pending) error
	ModifyOffset(chatID, userID int64, offset int) error
	ModifyDefaultCity(chatID, userID, cityID int64) error
	DeleteForecasts(chatID, userID int64) ([]models.Forecast, error)
	SearchCityByID(id int64) (models.City, error)
	GetCityByPattern(pattern string) ([]models.City, error)
	GetCityRow(pattern string, ordinal int) (models.City, error)
}

type Messenger interface {
	SendMessage(chatID int64, replyToMessageID int, text string) error
	SendTyping(chatID int64) error
}

type WeatherClient interface {
	Fetch(ctx context.Context, lat, lon float64) (string, error)
}

// Scheduler is the forecast lifecycle the state machine triggers.
type Scheduler interface {
	Schedule(chat models.Chat, cityID int64, hour, minutes int) error
	Reschedule(chat models.Chat, newOffset int) error
	RemoveDelivery(f models.Forecast) error
}

type Deps struct {
	Repo      Repository
	Messenger Messenger
	Weather   WeatherClient
	Scheduler Scheduler
	Log       zerolog.Logger
}

func (d Deps) validate() error {
	if d.Repo == nil || d.Messenger == nil || d.Weather == nil || d.Scheduler == nil {
		return errors.New("processor: repo, messenger, weather and scheduler are all required")
	}
	return nil
}

// Processor handles exactly one inbound message.
type Processor struct {
	deps      Deps
	chat      models.Chat
	command   command.Command
	text      string
	messageID int
	username  string
}

func New(deps Deps, chat models.Chat, cmd command.Command, text string, messageID int, username string) (*Processor, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, errors.New("processor: username is required")
	}
	return &Processor{
		deps:      deps,
		chat:      chat,
		command:   cmd,
		text:      text,
		messageID: messageID,
		username:  username,
	}, nil
}

// Process dispatches the message. The returned forecasts are non-empty only
// on the unschedule path; the caller removes their queued jobs.
func (p *Processor) Process(ctx context.Context) ([]models.Forecast, error) {
	// Free text at rest is noise, not a command in progress.
	if p.chat.State == models.StateInitial && p.command.Kind == command.Unknown {
		return nil, nil
	}

	if err := p.deps.Messenger.SendTyping(p.chat.ChatID); err != nil {
		return nil, err
	}

	// Cancel wins over whatever step the conversation is at.
	if p.command.Kind == command.Cancel {
		return nil, p.cancel("")
	}

	switch p.chat.State {
	case models.StateInitial:
		return p.processInitial(ctx)
	case models.StateFindCity:
		return nil, p.processFindCity()
	case models.StateSetCity:
		return nil, p.processSetCity()
	case models.StateTime:
		return nil, p.processTime()
	case models.StateFindCityNumber:
		return nil, p.processFindCityNumber(ctx)
	case models.StateSetCityNumber:
		return nil, p.processSetCityNumber()
	case models.StateOffset:
		return nil, p.processOffset()
	case models.StateScheduleCity:
		return nil, p.processScheduleCity()
	case models.StateScheduleCityNumber:
		return nil, p.processScheduleCityNumber()
	default:
		return nil, fmt.Errorf("processor: unknown state %q", p.chat.State)
	}
}

// RevertState is the best-effort compensation after a failed handler: back
// to Initial with a cancellation notice. Partial writes made before the
// failure stay.
func (p *Processor) RevertState() error {
	return p.cancel("")
}

func (p *Processor) returnToInitial() error {
	return p.deps.Repo.ModifyState(p.chat.ChatID, p.chat.UserID, models.StateInitial)
}

// cancel reverts to Initial and tells the user, with custom wording when
// the caller has something more specific than the plain notice.
func (p *Processor) cancel(custom string) error {
	if err := p.returnToInitial(); err != nil {
		return err
	}
	text := custom
	if text == "" {
		text = msgCanceled
	}
	return p.send(text)
}

func (p *Processor) send(text string) error {
	return p.deps.Messenger.SendMessage(p.chat.ChatID, p.messageID, fmt.Sprintf("Hi, %s!\n%s", p.username, text))
}
