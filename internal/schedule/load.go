package schedule

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed programme.yaml
var defaultProgramme []byte

// Warning describes a programme entry that loads but can never resolve.
type Warning struct {
	Day         string
	Index       int
	Description string
	Reason      string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s[%d] %q: %s", w.Day, w.Index, w.Description, w.Reason)
}

// Load reads a programme from a YAML file. An empty path loads the embedded
// default programme.
func Load(path string) (Schedule, error) {
	data := defaultProgramme
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read programme: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a programme document: a mapping of day name to a list of
// {start, end, description} entries. Day names are case-insensitive.
func Parse(data []byte) (Schedule, error) {
	var raw Schedule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse programme: %w", err)
	}
	s := make(Schedule, len(raw))
	for day, events := range raw {
		d, err := ParseDay(day)
		if err != nil {
			return nil, fmt.Errorf("parse programme: %w", err)
		}
		key := DayKey(d)
		if _, dup := s[key]; dup {
			return nil, fmt.Errorf("parse programme: day %q listed twice", strings.ToLower(day))
		}
		s[key] = events
	}
	return s, nil
}

// Validate reports entries that the resolver will never match.
func Validate(s Schedule) []Warning {
	var out []Warning
	for _, key := range Days(s, 0) {
		for i, ev := range s[key] {
			if ev.SpansMidnight() {
				out = append(out, Warning{
					Day:         key,
					Index:       i,
					Description: ev.Description,
					Reason:      fmt.Sprintf("ends (%s) before it starts (%s); events spanning midnight are not supported", ev.End, ev.Start),
				})
			}
		}
	}
	return out
}
