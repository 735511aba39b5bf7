package dictation

import "testing"

func TestStateMachine(t *testing.T) {
	sm := NewStateMachine()

	tests := []struct {
		name          string
		from          State
		to            State
		shouldSucceed bool
	}{
		{"Idle to Listening", StateIdle, StateListening, true},
		{"Listening to Idle", StateListening, StateIdle, true},
		{"Idle to Idle", StateIdle, StateIdle, false},
		{"Listening to Listening", StateListening, StateListening, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm.currentState = tt.from
			result := sm.Transition(tt.to)
			if result != tt.shouldSucceed {
				t.Errorf("Transition(%v) = %v, want %v", tt.to, result, tt.shouldSucceed)
			}
			if result && sm.GetCurrentState() != tt.to {
				t.Errorf("State after transition = %v, want %v", sm.GetCurrentState(), tt.to)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "Idle"},
		{StateListening, "Listening"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}
