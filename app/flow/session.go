package flow

import (
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
)

// callSession is the mutable per-call state, owned exclusively by the
// controller and mutated only under its lock. It is created on StartCall and
// discarded on call end; it never outlives one call.
type callSession struct {
	id          string
	agendaIndex int
	history     History
	facts       Facts
	summary     string

	playedVideos  map[string]bool
	pendingVideos []string

	// readyForNext is the latched vendor "ready to advance" signal, consulted
	// and reset at the next decision point.
	readyForNext bool

	pendingUtterance string
	callStart        time.Time
}

func newCallSession(now time.Time) *callSession {
	return &callSession{
		id:           uuid.NewString(),
		playedVideos: map[string]bool{},
		readyForNext: true,
		callStart:    now,
	}
}

func (s *callSession) elapsed(now time.Time) time.Duration {
	if s.callStart.IsZero() {
		return 0
	}
	return now.Sub(s.callStart)
}

func (s *callSession) videoPlayed(name string) bool {
	return s.playedVideos[name]
}

// markVideoPlayed records the video at enqueue time, not playback time, so an
// overlapping turn cannot queue it twice.
func (s *callSession) markVideoPlayed(name string) {
	s.playedVideos[name] = true
}

func (s *callSession) queueVideo(name string) {
	if s.videoPlayed(name) {
		return
	}
	s.markVideoPlayed(name)
	s.pendingVideos = append(s.pendingVideos, name)
}

func (s *callSession) dequeueVideo() (string, bool) {
	if len(s.pendingVideos) == 0 {
		return "", false
	}
	video := s.pendingVideos[0]
	s.pendingVideos = s.pendingVideos[1:]
	return video, true
}

// Snapshot is the serializable image of a call session used by persistence.
type Snapshot struct {
	SessionID    string    `json:"sessionId"`
	AgendaIndex  int       `json:"agendaIndex"`
	History      []Turn    `json:"history"`
	Facts        Facts     `json:"facts"`
	Summary      string    `json:"summary"`
	PlayedVideos []string  `json:"playedVideos"`
	CallStart    time.Time `json:"callStart"`
}

func (s *callSession) snapshot() Snapshot {
	return Snapshot{
		SessionID:    s.id,
		AgendaIndex:  s.agendaIndex,
		History:      s.history.Turns(),
		Facts:        s.facts,
		Summary:      s.summary,
		PlayedVideos: pie.Sort(pie.Keys(s.playedVideos)),
		CallStart:    s.callStart,
	}
}

func (s *callSession) restore(snap Snapshot) {
	s.id = snap.SessionID
	s.agendaIndex = snap.AgendaIndex
	s.history.Replace(snap.History)
	s.facts = snap.Facts
	s.summary = snap.Summary
	s.playedVideos = map[string]bool{}
	for _, v := range snap.PlayedVideos {
		s.playedVideos[v] = true
	}
	if !snap.CallStart.IsZero() {
		s.callStart = snap.CallStart
	}
}
