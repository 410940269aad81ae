package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-weather-bot/internal/command"
	"telegram-weather-bot/internal/models"
	"telegram-weather-bot/internal/storage"
)

// Search results past this count are as useless as none: the user is asked
// to narrow the search instead of paging.
const maxCityMatches = 30

func (p *Processor) processInitial(ctx context.Context) ([]models.Forecast, error) {
	switch p.command.Kind {
	case command.FindCity:
		if err := p.deps.Repo.ModifyState(p.chat.ChatID, p.chat.UserID, models.StateFindCity); err != nil {
			return nil, err
		}
		return nil, p.send(msgFindCity)

	case command.Start:
		return nil, p.send(msgStart)

	case command.CurrentDefaultCity:
		return nil, p.currentDefaultCity()

	case command.CurrentOffset:
		if p.chat.Offset == nil {
			return nil, p.send(msgNoOffsetSet)
		}
		return nil, p.send(fmt.Sprintf(msgCurrentOffsetFmt, *p.chat.Offset))

	case command.SetDefaultCity:
		return nil, p.setCity()

	case command.Default:
		return nil, p.defaultCityWeather(ctx)

	case command.Schedule:
		return nil, p.scheduleWeather()

	case command.SetOffset:
		if err := p.deps.Repo.ModifyState(p.chat.ChatID, p.chat.UserID, models.StateOffset); err != nil {
			return nil, err
		}
		return nil, p.send(msgOffsetPrompt)

	case command.UnSchedule:
		return p.unschedule()

	default:
		return nil, nil
	}
}

func (p *Processor) currentDefaultCity() error {
	if p.chat.DefaultCityID == nil {
		return p.send(msgNoDefaultCity)
	}
	city, err := p.deps.Repo.SearchCityByID(*p.chat.DefaultCityID)
	if errors.Is(err, storage.ErrCityNotFound) {
		return p.send(msgNoDefaultCity)
	}
	if err != nil {
		return err
	}
	return p.send(fmt.Sprintf(msgDefaultCityFmt, city.Display()))
}

func (p *Processor) defaultCityWeather(ctx context.Context) error {
	if p.chat.DefaultCityID == nil {
		if err := p.setCity(); err != nil {
			return err
		}
		return p.send(msgSettingDefault)
	}
	city, err := p.deps.Repo.SearchCityByID(*p.chat.DefaultCityID)
	if err != nil {
		return err
	}
	return p.getWeather(ctx, city)
}

func (p *Processor) setCity() error {
	if err := p.deps.Repo.ModifyState(p.chat.ChatID, p.chat.UserID, models.StateSetCity); err != nil {
		return err
	}
	return p.send(msgFindCity)
}

// scheduleWeather starts the schedule dialogue, or refuses it while no
// offset is known: a forecast cannot be created without one.
func (p *Processor) scheduleWeather() error {
	if p.chat.Offset == nil {
		return p.send(msgNoOffset)
	}
	if err := p.deps.Repo.ModifyState(p.chat.ChatID, p.chat.UserID, models.StateScheduleCity); err != nil {
		return err
	}
	return p.send(msgScheduleCity)
}

func (p *Processor) unschedule() ([]models.Forecast, error) {
	deleted, err := p.deps.Repo.DeleteForecasts(p.chat.ChatID, p.chat.UserID)
	if err != nil {
		return nil, err
	}
	if err := p.send(msgUnscheduled); err != nil {
		return nil, err
	}
	return deleted, nil
}

// ---------- city search steps ----------------------------------------------

func (p *Processor) processFindCity() error {
	return p.citySearchStep(models.StateFindCityNumber)
}

func (p *Processor) processSetCity() error {
	return p.citySearchStep(models.StateSetCityNumber)
}

func (p *Processor) processScheduleCity() error {
	return p.citySearchStep(models.StateScheduleCityNumber)
}

// citySearchStep treats the message as a search pattern, lists the matches
// and parks the pattern so the follow-up ordinal can address the same rows.
func (p *Processor) citySearchStep(next models.ClientState) error {
	ok, err := p.listCities()
	if err != nil || !ok {
		return err
	}
	pending := models.Pending{Kind: models.PendingSearch, Value: p.text}
	if err := p.deps.Repo.ModifyPending(p.chat.ChatID, p.chat.UserID, pending); err != nil {
		return err
	}
	return p.deps.Repo.ModifyState(p.chat.ChatID, p.chat.UserID, next)
}

// listCities reports whether the dialogue advances: zero or more than 30
// matches cancel with a "not found" notice instead.
func (p *Processor) listCities() (bool, error) {
	cities, err := p.deps.Repo.GetCityByPattern(p.text)
	if err != nil {
		return false, err
	}
	if len(cities) == 0 || len(cities) > maxCityMatches {
		return false, p.cancel(fmt.Sprintf(msgCityNotFoundFmt, p.text))
	}

	var b strings.Builder
	b.WriteString("I found these cities. Put a number to select one\n\n")
	for i, city := range cities {
		fmt.Fprintf(&b, "%d. %s\n", i+1, city.Display())
	}
	return true, p.send(b.String())
}

// ---------- numeric selection steps -----------------------------------------

func (p *Processor) processFindCityNumber(ctx context.Context) error {
	city, ok, err := p.selectedCity()
	if err != nil || !ok {
		return err
	}
	if err := p.returnToInitial(); err != nil {
		return err
	}
	return p.getWeather(ctx, city)
}

func (p *Processor) processSetCityNumber() error {
	city, ok, err := p.selectedCity()
	if err != nil || !ok {
		return err
	}
	if err := p.returnToInitial(); err != nil {
		return err
	}
	if err := p.deps.Repo.ModifyDefaultCity(p.chat.ChatID, p.chat.UserID, city.ID); err != nil {
		return err
	}
	return p.send(msgDefaultUpdated)
}

func (p *Processor) processScheduleCityNumber() error {
	city, ok, err := p.selectedCity()
	if err != nil || !ok {
		return err
	}
	pending := models.Pending{Kind: models.PendingCityID, Value: strconv.FormatInt(city.ID, 10)}
	if err := p.deps.Repo.ModifyPending(p.chat.ChatID, p.chat.UserID, pending); err != nil {
		return err
	}
	if err := p.deps.Repo.ModifyState(p.chat.ChatID, p.chat.UserID, models.StateTime); err != nil {
		return err
	}
	return p.send(msgScheduleTime)
}

// selectedCity resolves the message as a 1-based ordinal into the parked
// search. A non-number or an ordinal with no row is the user's mistake and
// cancels with a message; everything else propagates.
func (p *Processor) selectedCity() (models.City, bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(p.text))
	if err != nil {
		return models.City{}, false, p.cancel(msgNotNumber)
	}
	if p.chat.Pending.Kind != models.PendingSearch {
		return models.City{}, false, fmt.Errorf("processor: expected a parked search, have %q", p.chat.Pending.Kind)
	}
	city, err := p.deps.Repo.GetCityRow(p.chat.Pending.Value, n)
	if errors.Is(err, storage.ErrCityNotFound) {
		return models.City{}, false, p.cancel(msgNotNumber)
	}
	if err != nil {
		return models.City{}, false, err
	}
	return city, true, nil
}

// ---------- time & offset steps ---------------------------------------------

func (p *Processor) processTime() error {
	parts := strings.Split(strings.TrimSpace(p.text), ":")
	if len(parts) != 2 {
		return p.cancel(msgNotTime)
	}
	hour, ok := parseInRange(parts[0], 0, 23)
	if !ok {
		return p.cancel(msgNotTime)
	}
	minutes, ok := parseInRange(parts[1], 0, 59)
	if !ok {
		return p.cancel(msgNotTime)
	}

	if p.chat.Offset == nil {
		return errors.New("processor: time step reached without an offset")
	}
	if p.chat.Pending.Kind != models.PendingCityID {
		return fmt.Errorf("processor: expected a parked city id, have %q", p.chat.Pending.Kind)
	}
	cityID, err := strconv.ParseInt(p.chat.Pending.Value, 10, 64)
	if err != nil {
		return fmt.Errorf("processor: parked city id %q: %w", p.chat.Pending.Value, err)
	}

	if err := p.deps.Scheduler.Schedule(p.chat, cityID, hour, minutes); err != nil {
		return err
	}
	if err := p.returnToInitial(); err != nil {
		return err
	}
	return p.send(fmt.Sprintf(msgScheduledFmt, hour, minutes, *p.chat.Offset))
}

func (p *Processor) processOffset() error {
	offset, ok := parseInRange(strings.TrimSpace(p.text), -11, 12)
	if !ok {
		return p.cancel(msgNotOffset)
	}

	if err := p.deps.Repo.ModifyOffset(p.chat.ChatID, p.chat.UserID, offset); err != nil {
		return err
	}
	// p.chat still carries the previous offset; the reschedule needs it to
	// recover each forecast's user-local hour.
	if err := p.deps.Scheduler.Reschedule(p.chat, offset); err != nil {
		return err
	}
	if err := p.send(fmt.Sprintf(msgOffsetSetFmt, offset)); err != nil {
		return err
	}
	return p.returnToInitial()
}

func parseInRange(s string, min, max int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

// ---------- weather ---------------------------------------------------------

func (p *Processor) getWeather(ctx context.Context, city models.City) error {
	info, err := p.deps.Weather.Fetch(ctx, city.Coord.Lat, city.Coord.Lon)
	if err != nil {
		return err
	}
	return p.send(fmt.Sprintf("%s,%s\nLat %v , Lon %v\n%s",
		city.Name, city.Country, city.Coord.Lat, city.Coord.Lon, info))
}
