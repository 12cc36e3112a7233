package review

import "github.com/conorfennell/knolreview/internal/domain"

// DefaultSessionLogSize is how many review sessions are retained.
const DefaultSessionLogSize = 1000

// sessionLog is a fixed-capacity ring of review sessions. When full, the
// oldest record is overwritten.
type sessionLog struct {
	buf   []domain.ReviewSession
	start int
	n     int
}

func newSessionLog(capacity int) *sessionLog {
	if capacity <= 0 {
		capacity = DefaultSessionLogSize
	}
	return &sessionLog{buf: make([]domain.ReviewSession, capacity)}
}

func (l *sessionLog) len() int { return l.n }

func (l *sessionLog) cap() int { return len(l.buf) }

func (l *sessionLog) append(s domain.ReviewSession) {
	if l.n < len(l.buf) {
		l.buf[(l.start+l.n)%len(l.buf)] = s
		l.n++
		return
	}
	l.buf[l.start] = s
	l.start = (l.start + 1) % len(l.buf)
}

// each visits sessions oldest first.
func (l *sessionLog) each(fn func(domain.ReviewSession)) {
	for i := 0; i < l.n; i++ {
		fn(l.buf[(l.start+i)%len(l.buf)])
	}
}

func (l *sessionLog) all() []domain.ReviewSession {
	out := make([]domain.ReviewSession, 0, l.n)
	l.each(func(s domain.ReviewSession) { out = append(out, s) })
	return out
}

// replace refills the log, keeping only the newest entries that fit.
func (l *sessionLog) replace(sessions []domain.ReviewSession) {
	if over := len(sessions) - len(l.buf); over > 0 {
		sessions = sessions[over:]
	}
	for i := range l.buf {
		l.buf[i] = domain.ReviewSession{}
	}
	copy(l.buf, sessions)
	l.start = 0
	l.n = len(sessions)
}

// removeItem drops every session of itemID and reports how many went.
func (l *sessionLog) removeItem(itemID string) int {
	all := l.all()
	kept := all[:0]
	for _, s := range all {
		if s.ItemID != itemID {
			kept = append(kept, s)
		}
	}
	removed := len(all) - len(kept)
	if removed > 0 {
		l.replace(kept)
	}
	return removed
}
