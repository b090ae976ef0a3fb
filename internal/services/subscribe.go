package services

import "sync"

type subscription struct {
	id int
	fn func()
}

// subscribers keeps change listeners in registration order.
type subscribers struct {
	subMu  sync.Mutex
	nextID int
	subs   []subscription
}

// Subscribe registers fn to be called after every change to the records,
// whether made through this store or picked up from storage. Listeners run
// synchronously, in registration order, on the goroutine that made the
// change, and may call back into the store.
//
// The returned function unsubscribes fn; calling it more than once is a
// no-op. Registering the same function twice yields two subscriptions.
func (s *subscribers) Subscribe(fn func()) func() {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *subscribers) unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// notify calls every listener registered at the time of the call. Listeners
// removed while notify runs are not called any more.
func (s *subscribers) notify() {
	s.subMu.Lock()
	snapshot := append([]subscription(nil), s.subs...)
	s.subMu.Unlock()

	for _, sub := range snapshot {
		if !s.active(sub.id) {
			continue
		}
		sub.fn()
	}
}

func (s *subscribers) active(id int) bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subs {
		if sub.id == id {
			return true
		}
	}
	return false
}
