package nlu

import (
	"fmt"
	"time"
)

const classifierSystem = "You are an intent extractor. Return ONLY valid JSON."

const intentPrompt = `
You are an intent extractor. Return ONLY JSON.

Intents: change_volume, change_brightness, power_action, music_control, get_weather,
send_email, create_event, code_action, system_monitor, other
Slots: depends on intent.

Examples:
"It's too loud" -> {"intent":"change_volume","slots":{"action":"decrease"}}
"I can't hear anything" -> {"intent":"change_volume","slots":{"action":"increase"}}
"Full volume" -> {"intent":"change_volume","slots":{"action":"full"}}
"Set volume to 40 percent" -> {"intent":"change_volume","slots":{"action":"set","percent":40}}
"silence please" -> {"intent":"change_volume","slots":{"action":"mute"}}
"Unmute please" -> {"intent":"change_volume","slots":{"action":"unmute"}}

"it's too bright" -> {"intent":"change_brightness","slots":{"action":"decrease"}}
"I cant see anything" -> {"intent":"change_brightness","slots":{"action":"increase"}}
"set brightness to 70 percent" -> {"intent":"change_brightness","slots":{"action":"set","value":70}}
"increase brightness by 10" -> {"intent":"change_brightness","slots":{"action":"increase","step":10}}

"lock my pc" -> {"intent":"power_action","slots":{"action":"lock"}}
"put my computer to sleep" -> {"intent":"power_action","slots":{"action":"sleep"}}
"hibernate the system" -> {"intent":"power_action","slots":{"action":"hibernate"}}

"pause the song" -> {"intent":"music_control","slots":{"action":"play_pause"}}
"next song" -> {"intent":"music_control","slots":{"action":"next"}}
"previous track" -> {"intent":"music_control","slots":{"action":"previous"}}

"What's the weather in Vizag?" -> {"intent":"get_weather","slots":{"location":"Vizag"}}
"Will it rain tomorrow in Pune?" -> {"intent":"get_weather","slots":{"location":"Pune","datetime":"tomorrow"}}

"Send an email to Raj saying hello" -> {"intent":"send_email","slots":{"to":"Raj","body":"hello"}}
"Send an email to Raj saying the report is done" -> {"intent":"send_email","slots":{"to":"Raj","body":"The report is done","subject":"Report completed"}}

"Schedule a 30 minute call with Raj next Monday 10am" -> {"intent":"create_event","slots":{"title":"Call with Raj","datetime":"next Monday at 10am","duration":"30","participants":"Raj"}}
"Add a dentist appointment on Friday at 9" -> {"intent":"create_event","slots":{"title":"Dentist Appointment","datetime":"Friday 9am"}}

"open vs code" -> {"intent":"code_action","slots":{"action":"open_vscode"}}
"close vs code" -> {"intent":"code_action","slots":{"action":"close_vscode"}}
"create a python file called hello" -> {"intent":"code_action","slots":{"action":"create_file","filename":"hello","language":"python"}}
"write code in hello to print the first ten primes" -> {"intent":"code_action","slots":{"action":"write_code","filename":"hello","language":"python","instruction":"print the first ten primes"}}
"run hello" -> {"intent":"code_action","slots":{"action":"run_code","filename":"hello","language":"python"}}

"how much cpu am I using" -> {"intent":"system_monitor","slots":{"action":"cpu"}}
"check my battery" -> {"intent":"system_monitor","slots":{"action":"battery"}}
"system status" -> {"intent":"system_monitor","slots":{"action":"summary"}}

If you cannot classify, return {"intent":"other"}.

For create_event:
- Prefer an ISO 8601 datetime (YYYY-MM-DDTHH:MM) resolved against today's date
- Keep the spoken phrase if the date cannot be resolved
`

// BuildPrompt renders the classification prompt for one utterance.
func BuildPrompt(transcript string, now time.Time) string {
	return fmt.Sprintf("%s\nToday is %s (%s).\n\nUser: %q\n\nReturn JSON only with keys 'intent' and optional 'slots'.",
		intentPrompt,
		now.Format("Monday, 2006-01-02 15:04"),
		now.Location(),
		transcript,
	)
}
