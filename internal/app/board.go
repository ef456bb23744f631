package app

import (
	"sort"
	"sync"

	"quiz-hosting-service/internal/domain"
)

// BoardHub fans participant boards out to live subscribers, one board per quiz.
type BoardHub struct {
	mu     sync.Mutex
	boards map[string]*board
}

type board struct {
	subscribers map[chan domain.ParticipantBoard]struct{}
}

func NewBoardHub() *BoardHub {
	return &BoardHub{boards: make(map[string]*board)}
}

// Subscribe registers a listener for quizID and delivers initial first.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *BoardHub) Subscribe(quizID string, initial domain.ParticipantBoard) (<-chan domain.ParticipantBoard, func()) {
	ch := make(chan domain.ParticipantBoard, 8)

	h.mu.Lock()
	b, ok := h.boards[quizID]
	if !ok {
		b = &board{subscribers: make(map[chan domain.ParticipantBoard]struct{})}
		h.boards[quizID] = b
	}
	b.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	ch <- initial

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		b, ok := h.boards[quizID]
		if !ok {
			return
		}
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		if len(b.subscribers) == 0 {
			delete(h.boards, quizID)
		}
	}
	return ch, cancel
}

// Publish pushes snapshot to every subscriber of its quiz. Slow subscribers
// lose their oldest pending snapshot rather than blocking the publisher.
func (h *BoardHub) Publish(snapshot domain.ParticipantBoard) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.boards[snapshot.QuizID]
	if !ok {
		return
	}
	for ch := range b.subscribers {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Watchers reports how many subscribers a quiz has.
func (h *BoardHub) Watchers(quizID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.boards[quizID]; ok {
		return len(b.subscribers)
	}
	return 0
}

// rankParticipants orders by score desc, then earliest submission, then username.
func rankParticipants(participants []domain.Participant, submitted map[string]int64) []domain.Participant {
	ranked := append([]domain.Participant(nil), participants...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		ti, tj := submitted[ranked[i].UserID], submitted[ranked[j].UserID]
		if ti != tj {
			return ti < tj
		}
		return ranked[i].Username < ranked[j].Username
	})
	return ranked
}
