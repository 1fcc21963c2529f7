// Package scheduler drives the periodic poll loop: a 1ms ticker increments
// a monotonic counter, and on every tick every task whose interval divides
// the counter is dispatched through the facade and published through the
// event emitter. Registration and dispatch are safe for concurrent use.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"plcbridge/internal/events"
	"plcbridge/internal/plcerr"
	"plcbridge/pkg/datatypes"
)

// reader is the subset of *facade.Facade the scheduler dispatches through.
type reader interface {
	ReadBool(clientID uint64, address uint16) (bool, error)
	ReadWord(clientID uint64, address uint16, readOnly bool) (uint16, error)
	ReadDword(clientID uint64, address uint16, readOnly bool) (uint32, error)
	ReadFloat(clientID uint64, address uint16, readOnly bool) (float32, error)
}

// TaskKey identifies a registered task. Bool tasks always collapse to
// ReadOnly=false: a coil has exactly one poll regardless of how many
// writers share its address, since write_single_coil never needs exclusive
// claim the way a Dword/Float's two-register write does. Word/Dword/Float
// tasks key on ReadOnly too, so a writable task and a read-only monitor on
// the same address can be registered side by side. Register separates the
// coil address space (Bool) from the register address space, so a Bool
// task and a Word task at the same address are distinct tasks.
type TaskKey struct {
	ClientID uint64
	Register bool
	Address  uint16
	ReadOnly bool
}

func newKey(clientID uint64, address uint16, dt datatypes.DataType, readOnly bool) TaskKey {
	if dt == datatypes.Bool {
		readOnly = false
	}
	return TaskKey{ClientID: clientID, Register: dt != datatypes.Bool, Address: address, ReadOnly: readOnly}
}

// Task is a single registered periodic poll.
type Task struct {
	Key        TaskKey
	DataType   datatypes.DataType
	IntervalMs uint64
}

// Scheduler owns the task registry and the 1ms dispatch loop.
type Scheduler struct {
	log     *logrus.Logger
	facade  reader
	emitter *events.Emitter

	mu         sync.Mutex
	tasks      map[TaskKey]Task
	byInterval map[uint64]map[TaskKey]struct{}

	running atomic.Bool
	counter uint64

	executionLock sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Scheduler dispatching reads through facade and publishing
// results through emitter.
func New(log *logrus.Logger, facade reader, emitter *events.Emitter) *Scheduler {
	return &Scheduler{
		log:        log,
		facade:     facade,
		emitter:    emitter,
		tasks:      make(map[TaskKey]Task),
		byInterval: make(map[uint64]map[TaskKey]struct{}),
	}
}

// RegisterTask adds a periodic poll. intervalMs must be non-zero.
// Registering an existing key updates its interval in place.
func (s *Scheduler) RegisterTask(clientID uint64, address uint16, dt datatypes.DataType, intervalMs uint64, readOnly bool) error {
	if intervalMs == 0 {
		return plcerr.ZeroInterval()
	}

	key := newKey(clientID, address, dt, readOnly)
	task := Task{Key: key, DataType: dt, IntervalMs: intervalMs}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.tasks[key]; exists && old.IntervalMs != intervalMs {
		s.removeFromIndexLocked(old)
	}
	s.tasks[key] = task
	s.addToIndexLocked(task)
	return nil
}

// UnregisterTask removes a previously registered task.
func (s *Scheduler) UnregisterTask(clientID uint64, address uint16, dt datatypes.DataType, readOnly bool) error {
	key := newKey(clientID, address, dt, readOnly)

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key]
	if !ok {
		return plcerr.TaskNotFound(clientID, address)
	}
	delete(s.tasks, key)
	s.removeFromIndexLocked(task)
	return nil
}

func (s *Scheduler) addToIndexLocked(task Task) {
	group, ok := s.byInterval[task.IntervalMs]
	if !ok {
		group = make(map[TaskKey]struct{})
		s.byInterval[task.IntervalMs] = group
	}
	group[task.Key] = struct{}{}
}

func (s *Scheduler) removeFromIndexLocked(task Task) {
	group, ok := s.byInterval[task.IntervalMs]
	if !ok {
		return
	}
	delete(group, task.Key)
	if len(group) == 0 {
		delete(s.byInterval, task.IntervalMs)
	}
}

// Start launches the 1ms dispatch loop if it is not already running.
// Start is idempotent: calling it twice while running is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop halts the dispatch loop and waits for the in-flight tick, if any, to
// finish.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.running.Load() {
				return
			}
			counter := atomic.AddUint64(&s.counter, 1)
			s.dispatchTick(counter)
		}
	}
}

func (s *Scheduler) dispatchTick(counter uint64) {
	due := s.dueTasksLocked(counter)
	for _, task := range due {
		if !s.running.Load() {
			return
		}
		s.executeTask(task)
	}
}

func (s *Scheduler) dueTasksLocked(counter uint64) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Task
	for intervalMs, group := range s.byInterval {
		if counter%intervalMs != 0 {
			continue
		}
		for key := range group {
			if task, ok := s.tasks[key]; ok {
				due = append(due, task)
			}
		}
	}
	return due
}

func (s *Scheduler) executeTask(task Task) {
	s.executionLock.Lock()
	defer s.executionLock.Unlock()

	if !s.running.Load() {
		return
	}

	clientID, address := task.Key.ClientID, task.Key.Address
	switch task.DataType {
	case datatypes.Bool:
		v, err := s.facade.ReadBool(clientID, address)
		if err != nil {
			s.log.WithError(err).Warn("bool poll failed")
			return
		}
		s.emitter.EmitBool(clientID, address, v)
	case datatypes.Word:
		v, err := s.facade.ReadWord(clientID, address, task.Key.ReadOnly)
		if err != nil {
			s.log.WithError(err).Warn("word poll failed")
			return
		}
		s.emitter.EmitWord(clientID, address, v, task.Key.ReadOnly)
	case datatypes.Dword:
		v, err := s.facade.ReadDword(clientID, address, task.Key.ReadOnly)
		if err != nil {
			s.log.WithError(err).Warn("dword poll failed")
			return
		}
		s.emitter.EmitDword(clientID, address, v, task.Key.ReadOnly)
	case datatypes.Float:
		v, err := s.facade.ReadFloat(clientID, address, task.Key.ReadOnly)
		if err != nil {
			s.log.WithError(err).Warn("float poll failed")
			return
		}
		s.emitter.EmitFloat(clientID, address, v, task.Key.ReadOnly)
	}
}

// TaskCount returns how many tasks are currently registered, for tests and
// diagnostics.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
