package testutil

import (
	"fmt"
	"sync"
)

// Sink records notifications, chat lines and cues for assertions.
type Sink struct {
	mu    sync.Mutex
	notes []string
	chats []string
	cues  []string
}

func (s *Sink) Notify(title, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, fmt.Sprintf("%s: %s", title, message))
}

func (s *Sink) Chat(speaker, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, fmt.Sprintf("%s: %s", speaker, text))
}

func (s *Sink) Cue(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = append(s.cues, name)
}

func (s *Sink) Notes() []string { return s.snapshot(&s.notes) }
func (s *Sink) Chats() []string { return s.snapshot(&s.chats) }
func (s *Sink) Cues() []string  { return s.snapshot(&s.cues) }

// CueCount counts how many times name was cued.
func (s *Sink) CueCount(name string) int {
	n := 0
	for _, c := range s.Cues() {
		if c == name {
			n++
		}
	}
	return n
}

func (s *Sink) snapshot(l *[]string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), (*l)...)
}
