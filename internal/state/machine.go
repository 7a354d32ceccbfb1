package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 设备活跃状态常量
const (
	StateOffline = "offline"
	StateIdle    = "idle"
	StateActive  = "active"
)

// 事件常量
const (
	EventReportIdle   = "report_idle"
	EventReportActive = "report_active"
	EventGoOffline    = "go_offline"
)

// ChangeFunc 状态变化回调
type ChangeFunc func(deviceID, userID int64, from, to string)

// DeviceState 设备状态快照
type DeviceState struct {
	DeviceID     int64     `json:"device_id"`
	UserID       int64     `json:"-"`
	CurrentState string    `json:"state"`
	Since        time.Time `json:"since"`
	LastSeen     time.Time `json:"last_seen"`
	LastWatts    float64   `json:"last_watts"`
}

// Machine 设备状态机
type Machine struct {
	mu            sync.RWMutex
	deviceID      int64
	userID        int64
	fsm           *fsm.FSM
	state         *DeviceState
	onStateChange ChangeFunc
}

// NewMachine 创建状态机
func NewMachine(deviceID, userID int64, initialState string, onStateChange ChangeFunc) *Machine {
	if initialState == "" {
		initialState = StateOffline
	}

	m := &Machine{
		deviceID:      deviceID,
		userID:        userID,
		onStateChange: onStateChange,
		state: &DeviceState{
			DeviceID:     deviceID,
			UserID:       userID,
			CurrentState: initialState,
			Since:        time.Now(),
		},
	}

	m.fsm = fsm.NewFSM(
		initialState,
		fsm.Events{
			{Name: EventReportIdle, Src: []string{StateOffline, StateActive}, Dst: StateIdle},
			{Name: EventReportActive, Src: []string{StateOffline, StateIdle}, Dst: StateActive},
			{Name: EventGoOffline, Src: []string{StateIdle, StateActive}, Dst: StateOffline},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(m.deviceID, m.userID, e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// GetState 获取完整状态
func (m *Machine) GetState() *DeviceState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stateCopy := *m.state
	stateCopy.CurrentState = m.fsm.Current()
	return &stateCopy
}

// Report 记录一次读数并按功率切换 idle/active
// 早于 LastSeen 的补录读数只更新功率，不推进 LastSeen
func (m *Machine) Report(at time.Time, watts, activeWatts float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if at.After(m.state.LastSeen) {
		m.state.LastSeen = at
		m.state.LastWatts = watts
	}

	event := EventReportIdle
	if m.state.LastWatts >= activeWatts {
		event = EventReportActive
	}
	if !m.fsm.Can(event) {
		return nil
	}
	return m.trigger(event, at)
}

// Trigger 触发事件
func (m *Machine) Trigger(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trigger(event, time.Now())
}

func (m *Machine) trigger(event string, at time.Time) error {
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}

	m.state.CurrentState = m.fsm.Current()
	m.state.Since = at
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// goOfflineIfSilent 自 cutoff 起没有上报时置为 offline，检查和转换在同一把锁内完成
func (m *Machine) goOfflineIfSilent(cutoff, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fsm.Current() == StateOffline || !m.state.LastSeen.Before(cutoff) {
		return false
	}
	return m.trigger(EventGoOffline, at) == nil
}

// Manager 状态机管理器
type Manager struct {
	mu       sync.RWMutex
	machines map[int64]*Machine
	onChange ChangeFunc
}

// NewManager 创建管理器
func NewManager(onChange ChangeFunc) *Manager {
	return &Manager{
		machines: make(map[int64]*Machine),
		onChange: onChange,
	}
}

// GetOrCreate 获取或创建状态机
func (m *Manager) GetOrCreate(deviceID, userID int64) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if machine, ok := m.machines[deviceID]; ok {
		return machine
	}

	machine := NewMachine(deviceID, userID, StateOffline, m.onChange)
	m.machines[deviceID] = machine
	return machine
}

// Get 获取状态机
func (m *Manager) Get(deviceID int64) (*Machine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.machines[deviceID]
	return machine, ok
}

// StateOf 获取设备当前状态，未跟踪的设备视为 offline
func (m *Manager) StateOf(deviceID int64) string {
	if machine, ok := m.Get(deviceID); ok {
		return machine.CurrentState()
	}
	return StateOffline
}

// GetAllStates 获取所有设备状态
func (m *Manager) GetAllStates() map[int64]*DeviceState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[int64]*DeviceState)
	for deviceID, machine := range m.machines {
		states[deviceID] = machine.GetState()
	}
	return states
}

// Sweep 将 after 时长内没有上报的设备置为 offline，返回被置为 offline 的设备 ID
func (m *Manager) Sweep(now time.Time, after time.Duration) []int64 {
	m.mu.RLock()
	machines := make([]*Machine, 0, len(m.machines))
	for _, machine := range m.machines {
		machines = append(machines, machine)
	}
	m.mu.RUnlock()

	cutoff := now.Add(-after)
	var offline []int64
	for _, machine := range machines {
		if machine.goOfflineIfSilent(cutoff, now) {
			offline = append(offline, machine.deviceID)
		}
	}
	return offline
}
