package timeline

import (
	"encoding/json"
	"testing"

	"virtual-office-backend/internal/model"
)

func TestTimePoint_UnmarshalVariants(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		action Action
		check  func(t *testing.T, tp TimePoint)
	}{
		{
			name:   "move with position",
			input:  `{"timestamp":"2025-01-01T00:00:10Z","userId":"u1","action":"move","position":{"x":5,"y":6},"status":"ignored"}`,
			action: ActionMove,
			check: func(t *testing.T, tp TimePoint) {
				if got := tp.Change.(Move).Position; got != (model.Position{X: 5, Y: 6}) {
					t.Fatalf("position = %+v, want {5 6}", got)
				}
			},
		},
		{
			name:   "status with status",
			input:  `{"timestamp":"2025-01-01T00:00:10Z","userId":"u1","action":"status","status":"busy","dimensionId":"fork"}`,
			action: ActionStatus,
			check: func(t *testing.T, tp TimePoint) {
				if got := tp.Change.(StatusChange).Status; got != "busy" {
					t.Fatalf("status = %q, want busy", got)
				}
				if tp.DimensionID != "fork" {
					t.Fatalf("dimension = %q, want fork", tp.DimensionID)
				}
			},
		},
		{
			name:   "join",
			input:  `{"timestamp":"2025-01-01T00:00:10Z","userId":"u1","action":"join"}`,
			action: ActionJoin,
		},
		{
			name:   "move without position is unknown",
			input:  `{"timestamp":"2025-01-01T00:00:10Z","userId":"u1","action":"move"}`,
			action: ActionMove,
			check: func(t *testing.T, tp TimePoint) {
				if _, ok := tp.Change.(Unknown); !ok {
					t.Fatalf("change = %T, want Unknown", tp.Change)
				}
			},
		},
		{
			name:   "unrecognized action",
			input:  `{"timestamp":"2025-01-01T00:00:10Z","userId":"u1","action":"wave"}`,
			action: Action("wave"),
			check: func(t *testing.T, tp TimePoint) {
				if _, ok := tp.Change.(Unknown); !ok {
					t.Fatalf("change = %T, want Unknown", tp.Change)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tp TimePoint
			if err := json.Unmarshal([]byte(tt.input), &tp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if tp.Action() != tt.action {
				t.Fatalf("action = %q, want %q", tp.Action(), tt.action)
			}
			if tp.UserID != "u1" {
				t.Fatalf("user id = %q, want u1", tp.UserID)
			}
			if tt.check != nil {
				tt.check(t, tp)
			}
		})
	}
}

func TestTimePoint_MarshalOmitsForeignPayload(t *testing.T) {
	data, err := json.Marshal(NewStatus(at(1), "u1", "", "away"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["action"] != "status" {
		t.Fatalf("action = %v, want status", raw["action"])
	}
	if _, ok := raw["position"]; ok {
		t.Fatalf("status event must not carry a position: %s", data)
	}
}

func TestTimePoint_DimensionDefaults(t *testing.T) {
	if got := (TimePoint{}).Dimension(); got != model.DefaultDimensionID {
		t.Fatalf("dimension = %q, want %q", got, model.DefaultDimensionID)
	}
	if got := (TimePoint{DimensionID: "x"}).Dimension(); got != "x" {
		t.Fatalf("dimension = %q, want x", got)
	}
}
