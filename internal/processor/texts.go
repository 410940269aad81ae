package processor

const (
	msgStart = `This bot provides weather info around the globe.
Commands:
/find_city Ask weather info from any city worldwide.
/default Weather info from your default city.
/set_default_city Set your default city.
/schedule Get weather delivered every day at a time of your choosing.
/unschedule Remove all your scheduled deliveries.
/set_offset Set your UTC offset, needed before scheduling.
/current_default_city Show your default city.
/current_offset Show your UTC offset.
/cancel Cancel the command in progress.`

	msgFindCity = "Write a city, let me see if I can find it"

	msgCanceled = "Your operation was canceled"

	msgNotNumber = "That's not a positive number in the range. The command was cancelled"

	msgNotTime = "That's not a well formatted time, it has to be formatted with this format `hour:minutes` " +
		"being hour a number in range [0,23] and minutes a number in range [0,59]. The command was cancelled"

	msgNotOffset = "That's not a valid offset, it has to be a number in range [-11, 12].\n" +
		"If your timezone is UTC + 2 put 2, if you have UTC - 10 put -10, 0 if you have UTC timezone.\n" +
		"The command was cancelled"

	msgOffsetPrompt = "Do you have any offset respect UTC ?\n" +
		"(0 if your timezone is the same as UTC, 2 if UTC + 2, -2 if UTC - 2, [-11,12])"

	msgNoOffset = "You can not schedule without offset set. Please execute /set_offset"

	msgNoOffsetSet = "You do not have offset set. Please execute /set_offset"

	msgScheduleCity = "What city would you like to schedule ?"

	msgScheduleTime = "What time would you like to schedule ? (format hour:minutes in range 0-23:0-59)"

	msgUnscheduled = "Your forecasts were unscheduled"

	msgDefaultUpdated = "Your default city was updated"

	msgSettingDefault = "Setting default city..."

	msgNoDefaultCity = "You do not have default city"

	msgDefaultCityFmt = "Your default city is %s"

	msgCurrentOffsetFmt = "Your current offset is %d"

	msgOffsetSetFmt = "Your offset was set to %d"

	msgCityNotFoundFmt = "Your city %s was not found. Command cancelled."

	msgScheduledFmt = "Weather info scheduled every day at %d:%02d UTC %d"
)
