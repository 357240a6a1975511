package wheel

import (
	"container/list"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// State is a task's position in its lifecycle state machine. Wait and
// Running are non-terminal; Success, Fail, and Cancel are terminal.
type State int32

const (
	Wait State = iota
	Running
	Success
	Fail
	Cancel
)

func (s State) String() string {
	switch s {
	case Wait:
		return "Wait"
	case Running:
		return "Running"
	case Success:
		return "Success"
	case Fail:
		return "Fail"
	case Cancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// Task is the unit of scheduled work: an absolute expiry, a nullary
// action invoked at most once, and a lifecycle state. A Task is created
// by Wheel.AddTask/AddTaskAt and is never constructed directly by
// callers.
//
// The slot back-pointer is kept as an unsafe.Pointer behind atomic
// load/store rather than behind a mutex, mirroring the teacher's
// TimerTaskEntity.b field: the pointer must be readable by a canceller
// without blocking on a concurrent flush that is relocating the task.
//
// There is no separate per-task mutex: the Wait -> {Running, Cancel}
// compare-and-swap on state is itself the single linearization point
// between a racing Run and Cancel (§5 of the spec calls this CAS out
// explicitly), so a second lock around it would only add contention
// without changing the atomicity guarantee.
type Task struct {
	expiryMS int64
	action   func() error

	state State32 // atomic-backed state
	slot  unsafe.Pointer

	// element is the task's node in its current slot's list. Like slot,
	// it is only ever mutated while holding that slot's mutex, by
	// slot.add/remove/flush.
	element *list.Element

	failureSink func(*Task, error)
}

func getElement(t *Task) *list.Element { return t.element }
func setElement(t *Task, e *list.Element) { t.element = e }

// State32 is a small atomic wrapper around State, kept as its own type so
// Task's zero value is immediately usable (State Wait == 0).
type State32 struct {
	v int32
}

func (s *State32) load() State           { return State(atomic.LoadInt32(&s.v)) }
func (s *State32) store(v State)         { atomic.StoreInt32(&s.v, int32(v)) }
func (s *State32) cas(old, new State) bool {
	return atomic.CompareAndSwapInt32(&s.v, int32(old), int32(new))
}

func newTask(expiryMS int64, action func() error, failureSink func(*Task, error)) *Task {
	return &Task{expiryMS: expiryMS, action: action, failureSink: failureSink}
}

// ExpiryMS is the absolute millisecond instant this task is due.
func (t *Task) ExpiryMS() int64 { return t.expiryMS }

// State reports the task's current lifecycle state.
func (t *Task) State() State { return t.state.load() }

func (t *Task) getSlot() *slot {
	return (*slot)(atomic.LoadPointer(&t.slot))
}

func (t *Task) setSlot(s *slot) {
	atomic.StorePointer(&t.slot, unsafe.Pointer(s))
}

// Run attempts the Wait -> Running transition; if another transition has
// already happened (the task was cancelled, or is already running or
// terminal), Run is a no-op. On success it unlinks the task from its
// slot and invokes the action outside the state-transition critical
// section, so a slow action never blocks a concurrent Cancel. A panic
// from the action is recovered and treated as an action failure.
func (t *Task) Run() {
	if !t.state.cas(Wait, Running) {
		return
	}

	t.remove()

	err := t.invoke()
	if err != nil {
		t.state.store(Fail)
		if t.failureSink != nil {
			t.failureSink(t, err)
		}
		return
	}
	t.state.store(Success)
}

func (t *Task) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("wheel: task action panicked: %v", r)
		}
	}()
	return t.action()
}

// Cancel attempts the Wait -> Cancel transition. It returns false without
// side effects if the task has already left Wait (running, succeeded,
// failed, or already cancelled). It never invokes the action.
func (t *Task) Cancel() bool {
	if !t.state.cas(Wait, Cancel) {
		return false
	}

	t.remove()
	return true
}

// remove unlinks the task from whichever slot currently holds it. A
// concurrent flush may relocate the task between this function's read of
// t.slot and the unlink attempt (cascade), so the read-then-unlink is
// retried until the slot is absent or the unlink reports success.
func (t *Task) remove() {
	for {
		s := t.getSlot()
		if s == nil {
			return
		}
		if s.remove(t) {
			return
		}
	}
}
