package command

import "testing"

func TestParseKnownCommands(t *testing.T) {
	t.Parallel()
	p := Parser{Mention: "@SomeWeatherBot"}

	tests := []struct {
		text string
		kind Kind
	}{
		{"/start", Start},
		{"/find_city", FindCity},
		{"/default", Default},
		{"/set_default_city", SetDefaultCity},
		{"/cancel", Cancel},
		{"/schedule", Schedule},
		{"/unschedule", UnSchedule},
		{"/set_offset", SetOffset},
		{"/current_default_city", CurrentDefaultCity},
		{"/current_offset", CurrentOffset},
		{"/start@SomeWeatherBot", Start},
		{"  /schedule  ", Schedule},
		{"/cancel@SomeWeatherBot ", Cancel},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.text, func(t *testing.T) {
			got := p.Parse(tt.text)
			if got.Kind != tt.kind {
				t.Fatalf("Parse(%q).Kind = %v, want %v", tt.text, got.Kind, tt.kind)
			}
			if got.Text != "" {
				t.Fatalf("Parse(%q).Text = %q, want empty", tt.text, got.Text)
			}
		})
	}
}

func TestParseUnknownPreservesText(t *testing.T) {
	t.Parallel()
	p := Parser{Mention: "@SomeWeatherBot"}

	tests := []struct {
		text string
		want string
	}{
		{"Tokyo", "Tokyo"},
		{"  Tokyo  ", "Tokyo"},
		{"Tokyo@SomeWeatherBot", "Tokyo"},
		{"/unknown_command", "/unknown_command"},
		{"", ""},
		{"7:30", "7:30"},
	}

	for _, tt := range tests {
		got := p.Parse(tt.text)
		if got.Kind != Unknown {
			t.Fatalf("Parse(%q).Kind = %v, want Unknown", tt.text, got.Kind)
		}
		if got.Text != tt.want {
			t.Fatalf("Parse(%q).Text = %q, want %q", tt.text, got.Text, tt.want)
		}
	}
}

func TestParseWithoutMention(t *testing.T) {
	t.Parallel()
	p := Parser{}

	if got := p.Parse("/start"); got.Kind != Start {
		t.Fatalf("Parse(/start).Kind = %v, want Start", got.Kind)
	}
	// No configured mention: the suffix stays and the text is not a command.
	if got := p.Parse("/start@SomeWeatherBot"); got.Kind != Unknown {
		t.Fatalf("Parse with unstripped mention = %v, want Unknown", got.Kind)
	}
}
