package models

// ClientState is the conversation's position in its multi-step dialogue.
// Initial doubles as the rest state between conversations.
type ClientState string

const (
	StateInitial            ClientState = "initial"
	StateFindCity           ClientState = "find_city"
	StateSetCity            ClientState = "set_city"
	StateTime               ClientState = "time"
	StateFindCityNumber     ClientState = "find_city_number"
	StateSetCityNumber      ClientState = "set_city_number"
	StateOffset             ClientState = "offset"
	StateScheduleCity       ClientState = "schedule_city"
	StateScheduleCityNumber ClientState = "schedule_city_number"
)
