package shop

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"low":    PriorityLow,
		"Medium": PriorityMedium,
		"HIGH":   PriorityHigh,
		"urgent": PriorityUrgent,
		"紧急":     PriorityUrgent,
		"中":      PriorityMedium,
	}
	for in, want := range cases {
		got, err := ParsePriority(in)
		if err != nil {
			t.Errorf("ParsePriority(%q): unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePriority(%q): expected %v, got %v", in, want, got)
		}
	}

	if _, err := ParsePriority("asap"); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestPriority_TextRoundTripInDocuments(t *testing.T) {
	var fromJSON struct {
		P Priority `json:"p"`
	}
	if err := json.Unmarshal([]byte(`{"p":"high"}`), &fromJSON); err != nil {
		t.Fatalf("json: %v", err)
	}
	if fromJSON.P != PriorityHigh {
		t.Errorf("expected high from JSON, got %v", fromJSON.P)
	}

	var fromYAML struct {
		P Priority `yaml:"p"`
	}
	if err := yaml.Unmarshal([]byte("p: urgent\n"), &fromYAML); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if fromYAML.P != PriorityUrgent {
		t.Errorf("expected urgent from YAML, got %v", fromYAML.P)
	}
}

func TestJobValidate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	ok := Job{ID: "j1", Quantity: 10, Priority: PriorityLow}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected valid job, got %v", err)
	}

	bad := Job{ID: "j2", Quantity: 0, Priority: PriorityLow}
	err := bad.Validate()
	if err == nil || !strings.Contains(err.Error(), "quantity") {
		t.Errorf("expected quantity error, got %v", err)
	}

	window := Job{ID: "j3", Quantity: 5, Priority: PriorityHigh, EarliestStart: day.Add(Day), LatestFinish: day}
	if err := window.Validate(); err == nil {
		t.Error("expected error when earliest start is after latest finish")
	}

	noPriority := Job{ID: "j4", Quantity: 5}
	if err := noPriority.Validate(); err == nil {
		t.Error("expected error for missing priority")
	}

	loaded := Job{ID: "j5", Quantity: 5, Problems: []string{`unknown priority "critical"`}}
	err = loaded.Validate()
	if err == nil || err.Error() != `unknown priority "critical"` {
		t.Errorf("expected the load problem as the only reason, got %v", err)
	}
}

func TestResourceMatches(t *testing.T) {
	r := Resource{ID: "r1", ProductionLine: "车间A", Tags: []string{"cnc", "paint"}}

	if !r.Matches("") {
		t.Error("empty tag should match every resource")
	}
	if !r.Matches("cnc") {
		t.Error("expected tag cnc to match")
	}
	if !r.Matches("车间A") {
		t.Error("expected production line to match")
	}
	if r.Matches("车间C") {
		t.Error("did not expect 车间C to match")
	}
}

func TestIsSchedulable(t *testing.T) {
	if !IsSchedulable("", SchedulableStatuses) {
		t.Error("empty status should be schedulable")
	}
	if !IsSchedulable("pending", SchedulableStatuses) {
		t.Error("pending should be schedulable")
	}
	if IsSchedulable("completed", SchedulableStatuses) {
		t.Error("completed should not be schedulable")
	}
}
