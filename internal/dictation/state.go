package dictation

import "slices"

// State 听写会话状态
type State int

const (
	StateIdle State = iota
	StateListening
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListening:
		return "Listening"
	default:
		return "Unknown"
	}
}

var validTransitions = map[State][]State{
	StateIdle:      {StateListening},
	StateListening: {StateIdle},
}

// StateMachine 状态机
type StateMachine struct {
	currentState State
}

func NewStateMachine() *StateMachine {
	return &StateMachine{
		currentState: StateIdle,
	}
}

// CanTransition 检查是否可以转换
func (sm *StateMachine) CanTransition(to State) bool {
	validTo, ok := validTransitions[sm.currentState]
	if !ok {
		return false
	}
	return slices.Contains(validTo, to)
}

// Transition 状态转换
func (sm *StateMachine) Transition(to State) bool {
	if sm.CanTransition(to) {
		sm.currentState = to
		return true
	}
	return false
}

// GetCurrentState 获取当前状态
func (sm *StateMachine) GetCurrentState() State {
	return sm.currentState
}
