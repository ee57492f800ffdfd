package shop

import (
	"fmt"
	"strings"
)

// Priority ranks jobs. Higher values are more urgent.
type Priority int

const (
	PriorityUnknown Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
	PriorityUrgent: "urgent",
}

// ParsePriority accepts the English names (any case) and the Chinese labels
// used by the upstream plan records.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "低":
		return PriorityLow, nil
	case "medium", "normal", "中":
		return PriorityMedium, nil
	case "high", "高":
		return PriorityHigh, nil
	case "urgent", "紧急":
		return PriorityUrgent, nil
	}
	return PriorityUnknown, fmt.Errorf("unknown priority %q", s)
}

// Weight is the ordering weight: Low=1 .. Urgent=4, 0 when unknown.
func (p Priority) Weight() int {
	if p < PriorityLow || p > PriorityUrgent {
		return 0
	}
	return int(p)
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	return p.Weight() > 0
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "unknown" round-trips
// to PriorityUnknown so saved runs holding invalid jobs can be read back.
func (p *Priority) UnmarshalText(text []byte) error {
	if string(text) == "unknown" {
		*p = PriorityUnknown
		return nil
	}
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
