// Package memory keeps the whole ledger in process memory. It backs the
// service when no database is configured and is the state holder behind the
// SQLite snapshot store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository"
)

// Snapshot is the serialisable state of the store.
type Snapshot struct {
	Departments       []domain.Department
	Roles             []domain.Role
	Accounts          []domain.Account
	Items             []domain.StockItem
	Reservations      []domain.Reservation
	NextItemID        int64
	NextReservationID int64
}

// CommitHook persists the state a write is about to publish. An error
// rejects the write.
type CommitHook func(Snapshot) error

type accountKey struct {
	role  domain.AccountRole
	email string
}

// itemRow serialises writers through mu. Readers load value without locking
// so snapshots never wait on an in-flight mutation.
type itemRow struct {
	mu      sync.Mutex
	value   atomic.Pointer[domain.StockItem]
	deleted atomic.Bool
}

type reservationRow struct {
	mu    sync.Mutex
	value atomic.Pointer[domain.Reservation]
}

// Store is a concurrency-safe in-memory implementation of every repository.
type Store struct {
	mu           sync.RWMutex
	departments  []domain.Department
	roles        []domain.Role
	accounts     map[accountKey]domain.Account
	accountOrder []accountKey
	items        map[int64]*itemRow
	reservations map[int64]*reservationRow
	nextItem     int64
	nextRes      int64

	commitMu sync.Mutex
	onCommit CommitHook

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[accountKey]domain.Account),
		items:        make(map[int64]*itemRow),
		reservations: make(map[int64]*reservationRow),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// OnCommit registers a hook that must accept every write before it is published.
func (s *Store) OnCommit(hook CommitHook) {
	s.commitMu.Lock()
	s.onCommit = hook
	s.commitMu.Unlock()
}

// Catalog exposes the store as a CatalogRepository.
func (s *Store) Catalog() repository.CatalogRepository { return catalogRepo{s} }

// Accounts exposes the store as an AccountRepository.
func (s *Store) Accounts() repository.AccountRepository { return accountRepo{s} }

// Items exposes the store as an ItemRepository.
func (s *Store) Items() repository.ItemRepository { return itemRepo{s} }

// Reservations exposes the store as a ReservationRepository.
func (s *Store) Reservations() repository.ReservationRepository { return reservationRepo{s} }

// Ping always succeeds; it lets the store satisfy readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ExportState copies the current state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Departments:       append([]domain.Department(nil), s.departments...),
		Roles:             append([]domain.Role(nil), s.roles...),
		NextItemID:        s.nextItem,
		NextReservationID: s.nextRes,
	}
	for _, key := range s.accountOrder {
		snap.Accounts = append(snap.Accounts, s.accounts[key])
	}
	for _, row := range s.items {
		if row.deleted.Load() {
			continue
		}
		snap.Items = append(snap.Items, *row.value.Load())
	}
	sort.Slice(snap.Items, func(i, j int) bool { return snap.Items[i].ID < snap.Items[j].ID })
	for _, row := range s.reservations {
		snap.Reservations = append(snap.Reservations, *row.value.Load())
	}
	sort.Slice(snap.Reservations, func(i, j int) bool { return snap.Reservations[i].ID < snap.Reservations[j].ID })
	return snap
}

// ImportState replaces the current state with snap.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.departments = append([]domain.Department(nil), snap.Departments...)
	s.roles = append([]domain.Role(nil), snap.Roles...)
	s.accounts = make(map[accountKey]domain.Account, len(snap.Accounts))
	s.accountOrder = s.accountOrder[:0]
	for _, acc := range snap.Accounts {
		key := accountKey{role: acc.Role, email: acc.Email}
		if _, exists := s.accounts[key]; !exists {
			s.accountOrder = append(s.accountOrder, key)
		}
		s.accounts[key] = acc
	}

	s.items = make(map[int64]*itemRow, len(snap.Items))
	s.nextItem = snap.NextItemID
	for i := range snap.Items {
		item := snap.Items[i]
		row := &itemRow{}
		row.value.Store(&item)
		s.items[item.ID] = row
		if item.ID > s.nextItem {
			s.nextItem = item.ID
		}
	}

	s.reservations = make(map[int64]*reservationRow, len(snap.Reservations))
	s.nextRes = snap.NextReservationID
	for i := range snap.Reservations {
		res := snap.Reservations[i]
		row := &reservationRow{}
		row.value.Store(&res)
		s.reservations[res.ID] = row
		if res.ID > s.nextRes {
			s.nextRes = res.ID
		}
	}
}

// stageFunc validates a pending write against the current state, applies it
// to the candidate snapshot and returns the function that makes it visible.
type stageFunc func(candidate *Snapshot) (publish func(), err error)

// commit publishes a write only after the commit hook has accepted the
// candidate snapshot. Writes are published one at a time, so a rejected
// write leaves no trace. Callers may hold row locks but never s.mu.
func (s *Store) commit(stage stageFunc) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	var candidate Snapshot
	if s.onCommit != nil {
		candidate = s.ExportState()
	}
	publish, err := stage(&candidate)
	if err != nil {
		return err
	}
	if s.onCommit != nil {
		if err := s.onCommit(candidate); err != nil {
			return fmt.Errorf("%w: persist snapshot: %v", repository.ErrUnavailable, err)
		}
	}
	publish()
	return nil
}

func (snap *Snapshot) putItem(item domain.StockItem) {
	for i := range snap.Items {
		if snap.Items[i].ID == item.ID {
			snap.Items[i] = item
			return
		}
	}
	snap.Items = append(snap.Items, item)
	if item.ID > snap.NextItemID {
		snap.NextItemID = item.ID
	}
}

func (snap *Snapshot) dropItem(id int64) {
	for i := range snap.Items {
		if snap.Items[i].ID == id {
			snap.Items = append(snap.Items[:i], snap.Items[i+1:]...)
			return
		}
	}
}

func (snap *Snapshot) putReservation(res domain.Reservation) {
	for i := range snap.Reservations {
		if snap.Reservations[i].ID == res.ID {
			snap.Reservations[i] = res
			return
		}
	}
	snap.Reservations = append(snap.Reservations, res)
	if res.ID > snap.NextReservationID {
		snap.NextReservationID = res.ID
	}
}

func (s *Store) itemRow(id int64) (*itemRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.items[id]
	if !ok || row.deleted.Load() {
		return nil, false
	}
	return row, true
}

func (s *Store) reservationRow(id int64) (*reservationRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.reservations[id]
	return row, ok
}
