// Package memstore is an in-process domain.Repository. It backs the
// "memory" store driver and the package tests; nothing survives a restart.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"react-analytics/internal/domain"
)

type Store struct {
	mu            sync.RWMutex
	messages      map[domain.MessageID]domain.Message
	messageReacts map[domain.MessageID]map[string]int64
	userReacts    map[string]map[string]int64
	reactCounts   map[string]int64
}

var _ domain.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		messages:      make(map[domain.MessageID]domain.Message),
		messageReacts: make(map[domain.MessageID]map[string]int64),
		userReacts:    make(map[string]map[string]int64),
		reactCounts:   make(map[string]int64),
	}
}

func (s *Store) InsertMessage(_ context.Context, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[msg.ID]; ok {
		return domain.ErrDuplicateMessage
	}
	s.messages[msg.ID] = msg
	return nil
}

func (s *Store) DeleteMessage(_ context.Context, id domain.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, id)
	return nil
}

func (s *Store) IncrementReact(_ context.Context, id domain.MessageID, userID, react string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bump(s.messageReacts, id, react)
	bump(s.userReacts, userID, react)
	s.reactCounts[react]++
	return nil
}

func (s *Store) InsertMessageWithReacts(_ context.Context, msg domain.Message, reacts []domain.UserReact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[msg.ID]; ok {
		return domain.ErrDuplicateMessage
	}
	s.messages[msg.ID] = msg
	for _, r := range reacts {
		bump(s.messageReacts, msg.ID, r.React)
		bump(s.userReacts, r.UserID, r.React)
		s.reactCounts[r.React]++
	}
	return nil
}

func (s *Store) DecrementReact(_ context.Context, id domain.MessageID, userID, react string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if drop(s.messageReacts, id, react) && s.reactCounts[react] > 0 {
		s.reactCounts[react]--
	}
	drop(s.userReacts, userID, react)
	return nil
}

func bump[K comparable](counters map[K]map[string]int64, key K, react string) {
	inner, ok := counters[key]
	if !ok {
		inner = make(map[string]int64)
		counters[key] = inner
	}
	inner[react]++
}

// drop decrements a counter that is above zero and reports whether it did.
func drop[K comparable](counters map[K]map[string]int64, key K, react string) bool {
	inner := counters[key]
	if inner[react] <= 0 {
		return false
	}
	inner[react]--
	return true
}

func (s *Store) GetReactCounts(_ context.Context) ([]domain.KeyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return keyCounts(s.reactCounts), nil
}

func (s *Store) GetReactsByUser(_ context.Context, userID string) ([]domain.KeyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return keyCounts(s.userReacts[userID]), nil
}

func (s *Store) GetReactsOnMessage(_ context.Context, id domain.MessageID) ([]domain.KeyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return keyCounts(s.messageReacts[id]), nil
}

func (s *Store) GetAllMessageReacts(_ context.Context) ([]domain.MessageReact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.MessageID, 0, len(s.messageReacts))
	for id := range s.messageReacts {
		ids = append(ids, id)
	}
	sortIDs(ids)

	reacts := []domain.MessageReact{}
	for _, id := range ids {
		for _, kc := range keyCounts(s.messageReacts[id]) {
			reacts = append(reacts, domain.MessageReact{MessageID: id, React: kc.Key, Count: kc.Count})
		}
	}
	return reacts, nil
}

func (s *Store) GetMessagesByUser(_ context.Context, userID string) ([]domain.MessageID, error) {
	return s.messageIDs(func(m domain.Message) bool { return m.UserID == userID }), nil
}

func (s *Store) GetMessageIDs(_ context.Context, channelID string) ([]domain.MessageID, error) {
	return s.messageIDs(func(m domain.Message) bool {
		return channelID == "" || m.ID.ChannelID == channelID
	}), nil
}

func (s *Store) GetAllMessageTexts(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	texts := []string{}
	for _, id := range s.sortedMessageIDs() {
		texts = append(texts, s.messages[id].Text)
	}
	return texts, nil
}

func (s *Store) GetMessageText(_ context.Context, id domain.MessageID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.messages[id].Text, nil
}

func (s *Store) GetMessageTextsWithReact(_ context.Context, react string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	texts := []string{}
	for _, id := range s.sortedMessageIDs() {
		if s.messageReacts[id][react] > 0 {
			texts = append(texts, s.messages[id].Text)
		}
	}
	return texts, nil
}

func (s *Store) GetUserReactTotals(_ context.Context) ([]domain.KeyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64, len(s.userReacts))
	for user, reacts := range s.userReacts {
		for _, n := range reacts {
			totals[user] += n
		}
	}
	return keyCounts(totals), nil
}

func (s *Store) GetUserMessageCounts(_ context.Context) ([]domain.KeyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, m := range s.messages {
		counts[m.UserID]++
	}
	return keyCounts(counts), nil
}

func (s *Store) messageIDs(keep func(domain.Message) bool) []domain.MessageID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []domain.MessageID{}
	for _, id := range s.sortedMessageIDs() {
		if keep(s.messages[id]) {
			ids = append(ids, id)
		}
	}
	return ids
}

// sortedMessageIDs expects s.mu to be held.
func (s *Store) sortedMessageIDs() []domain.MessageID {
	ids := make([]domain.MessageID, 0, len(s.messages))
	for id := range s.messages {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []domain.MessageID) {
	slices.SortFunc(ids, func(a, b domain.MessageID) int {
		if c := cmp.Compare(a.ChannelID, b.ChannelID); c != 0 {
			return c
		}
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
}

// keyCounts returns the positive entries sorted by key.
func keyCounts(m map[string]int64) []domain.KeyCount {
	rows := []domain.KeyCount{}
	for key, n := range m {
		if n > 0 {
			rows = append(rows, domain.KeyCount{Key: key, Count: n})
		}
	}
	slices.SortFunc(rows, func(a, b domain.KeyCount) int { return cmp.Compare(a.Key, b.Key) })
	return rows
}
