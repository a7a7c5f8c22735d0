package databaseaccess

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
)

// MemoryDatabase keeps relayer state in memory, state is lost on restart
type MemoryDatabase struct {
	lock sync.RWMutex

	lastScannedBlock  *uint64
	processedNonces   map[uint64]core.ProcessedNonce
	pendingEvents     map[uint64]core.PendingEvent
	escalatedEvents   map[uint64]core.PendingEvent
	failedSubmissions map[uint64]core.FailedSubmission
}

var _ core.Database = (*MemoryDatabase)(nil)

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{}
}

func (md *MemoryDatabase) Init(_ string) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	md.lastScannedBlock = nil
	md.processedNonces = map[uint64]core.ProcessedNonce{}
	md.pendingEvents = map[uint64]core.PendingEvent{}
	md.escalatedEvents = map[uint64]core.PendingEvent{}
	md.failedSubmissions = map[uint64]core.FailedSubmission{}

	return nil
}

func (md *MemoryDatabase) Close() error {
	return nil
}

func (md *MemoryDatabase) GetLastScannedBlock() (uint64, bool, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()

	if md.lastScannedBlock == nil {
		return 0, false, nil
	}

	return *md.lastScannedBlock, true, nil
}

func (md *MemoryDatabase) SaveScanResult(lastScannedBlock uint64, events []*core.ChainEvent) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	for _, ev := range events {
		if _, exists := md.pendingEvents[ev.Nonce]; !exists {
			md.pendingEvents[ev.Nonce] = core.PendingEvent{Event: copyEvent(ev)}
		}
	}

	md.lastScannedBlock = &lastScannedBlock

	return nil
}

func (md *MemoryDatabase) IsNonceProcessed(nonce uint64) (bool, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()

	_, exists := md.processedNonces[nonce]

	return exists, nil
}

func (md *MemoryDatabase) AddProcessedNonce(entry *core.ProcessedNonce) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	if _, exists := md.processedNonces[entry.Nonce]; exists {
		return fmt.Errorf("%w: %d", core.ErrNonceAlreadyProcessed, entry.Nonce)
	}

	md.processedNonces[entry.Nonce] = *entry

	return nil
}

func (md *MemoryDatabase) GetProcessedNonce(nonce uint64) (*core.ProcessedNonce, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()

	entry, exists := md.processedNonces[nonce]
	if !exists {
		return nil, nil
	}

	return &entry, nil
}

func (md *MemoryDatabase) GetProcessedNoncesCount() (int, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()

	return len(md.processedNonces), nil
}

func (md *MemoryDatabase) PruneProcessedNonces(belowBlock uint64) (int, error) {
	md.lock.Lock()
	defer md.lock.Unlock()

	count := 0

	for nonce, entry := range md.processedNonces {
		if entry.BlockNumber < belowBlock {
			delete(md.processedNonces, nonce)

			count++
		}
	}

	return count, nil
}

func (md *MemoryDatabase) GetPendingEvents() ([]*core.PendingEvent, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()

	return sortedValues(md.pendingEvents, copyPendingEvent), nil
}

func (md *MemoryDatabase) UpdatePendingEvent(event *core.PendingEvent) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	md.pendingEvents[event.Event.Nonce] = *copyPendingEvent(event)

	return nil
}

func (md *MemoryDatabase) RemovePendingEvent(nonce uint64) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	delete(md.pendingEvents, nonce)

	return nil
}

func (md *MemoryDatabase) EscalatePendingEvent(event *core.PendingEvent) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	delete(md.pendingEvents, event.Event.Nonce)
	md.escalatedEvents[event.Event.Nonce] = *copyPendingEvent(event)

	return nil
}

func (md *MemoryDatabase) GetEscalatedEvents() ([]*core.PendingEvent, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()

	return sortedValues(md.escalatedEvents, copyPendingEvent), nil
}

func (md *MemoryDatabase) AddFailedSubmission(failed *core.FailedSubmission) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	md.failedSubmissions[failed.Call.SourceNonce] = *failed

	return nil
}

func (md *MemoryDatabase) GetFailedSubmissions() ([]*core.FailedSubmission, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()

	return sortedValues(md.failedSubmissions, func(v *core.FailedSubmission) *core.FailedSubmission {
		return v
	}), nil
}

// sortedValues returns copies of the map values ordered by nonce, same as the bbolt key order
func sortedValues[T any](values map[uint64]T, copyFn func(*T) *T) []*T {
	keys := make([]uint64, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})

	result := make([]*T, len(keys))

	for i, k := range keys {
		value := values[k]
		result[i] = copyFn(&value)
	}

	return result
}

func copyPendingEvent(ev *core.PendingEvent) *core.PendingEvent {
	result := *ev
	result.Event = copyEvent(ev.Event)

	return &result
}

func copyEvent(ev *core.ChainEvent) *core.ChainEvent {
	result := *ev

	return &result
}
