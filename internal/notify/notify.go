// Package notify remonte les échecs à l'utilisateur. Aucun échec n'est
// silencieux : chaque action ratée produit exactement une notice.
package notify

import (
	"log"
	"sync"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warning"
	LevelError Level = "error"
)

// Notice est l'équivalent d'une alerte modale : un titre d'action et un message
type Notice struct {
	Level   Level
	Action  string
	Message string
}

type Notifier interface {
	Notify(Notice)
}

// Func adapte une fonction en Notifier
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// LogNotifier écrit les notices dans le log standard
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	switch n.Level {
	case LevelError:
		log.Printf("❌ %s : %s", n.Action, n.Message)
	case LevelWarn:
		log.Printf("⚠️ %s : %s", n.Action, n.Message)
	default:
		log.Printf("✅ %s : %s", n.Action, n.Message)
	}
}

// Discard ignore toutes les notices
var Discard Notifier = Func(func(Notice) {})

// Recorder garde les notices en mémoire (tests, CLI)
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last renvoie la dernière notice, ou false s'il n'y en a aucune
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// Or renvoie n, ou Discard si n est nil
func Or(n Notifier) Notifier {
	if n == nil {
		return Discard
	}
	return n
}

// Error est un raccourci pour une notice d'échec
func Error(n Notifier, action, message string) {
	Or(n).Notify(Notice{Level: LevelError, Action: action, Message: message})
}

// Warn est un raccourci pour un avertissement (règle métier locale)
func Warn(n Notifier, action, message string) {
	Or(n).Notify(Notice{Level: LevelWarn, Action: action, Message: message})
}
