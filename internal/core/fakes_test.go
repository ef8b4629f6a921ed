package core

import (
	"context"
	"errors"
	"sync"

	"swasthyasathi/pkg"
)

type memStore struct {
	mu       sync.Mutex
	profiles map[string]*pkg.UserProfile
	failNext error
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[string]*pkg.UserProfile)}
}

func (s *memStore) put(p pkg.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Phone] = &p
}

func (s *memStore) snapshot(phone string) (pkg.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[phone]
	if !ok {
		return pkg.UserProfile{}, false
	}
	return *p, true
}

func (s *memStore) Get(_ context.Context, phone string) (*pkg.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[phone]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, phone string) (*pkg.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[phone]; ok {
		cp := *p
		return &cp, nil
	}
	p := &pkg.UserProfile{Phone: phone, Step: pkg.StepStart}
	s.profiles[phone] = p
	cp := *p
	return &cp, nil
}

func (s *memStore) Update(_ context.Context, phone string, u pkg.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	p, ok := s.profiles[phone]
	if !ok {
		return ErrProfileNotFound
	}
	u.Apply(p)
	return nil
}

func (s *memStore) Delete(_ context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.profiles[phone]
	delete(s.profiles, phone)
	return ok, nil
}

func (s *memStore) ClaimPendingMedia(_ context.Context, phone, mediaID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[phone]
	if !ok || p.PendingMediaID != mediaID {
		return false, nil
	}
	p.PendingMediaID = ""
	return true, nil
}

type sentKind int

const (
	sentText sentKind = iota
	sentButtons
	sentList
	sentLocation
)

type sent struct {
	kind    sentKind
	to      string
	text    string
	buttons []Button
	list    ListPrompt
}

type recordingNotifier struct {
	mu      sync.Mutex
	msgs    []sent
	failAll error
}

func (n *recordingNotifier) record(s sent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll != nil {
		return n.failAll
	}
	n.msgs = append(n.msgs, s)
	return nil
}

func (n *recordingNotifier) SendText(_ context.Context, to, text string) error {
	return n.record(sent{kind: sentText, to: to, text: text})
}

func (n *recordingNotifier) SendButtons(_ context.Context, to, body string, buttons []Button) error {
	return n.record(sent{kind: sentButtons, to: to, text: body, buttons: buttons})
}

func (n *recordingNotifier) SendList(_ context.Context, to string, list ListPrompt) error {
	return n.record(sent{kind: sentList, to: to, text: list.Body, list: list})
}

func (n *recordingNotifier) SendLocationRequest(_ context.Context, to, body string) error {
	return n.record(sent{kind: sentLocation, to: to, text: body})
}

func (n *recordingNotifier) all() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.msgs...)
}

func (n *recordingNotifier) last() sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) == 0 {
		return sent{}
	}
	return n.msgs[len(n.msgs)-1]
}

func (n *recordingNotifier) texts() []string {
	var out []string
	for _, m := range n.all() {
		out = append(out, m.text)
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = nil
}

// tagTranslator marks translated text so tests can see which hops ran.
type tagTranslator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (t *tagTranslator) Translate(_ context.Context, text, from, to string) (string, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	if t.err != nil {
		return text, t.err
	}
	return "[" + from + ">" + to + "] " + text, nil
}

type stubAnalyzer struct {
	mu       sync.Mutex
	answer   string
	err      error
	queries  []string
	contexts []string
	images   []*pkg.Image
}

func (a *stubAnalyzer) Analyze(_ context.Context, query, profileContext string, image *pkg.Image) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queries = append(a.queries, query)
	a.contexts = append(a.contexts, profileContext)
	a.images = append(a.images, image)
	if a.err != nil {
		return "fallback", a.err
	}
	return a.answer, nil
}

type logEntry struct {
	userID, in, out string
}

type memLogs struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *memLogs) AppendChatLog(_ context.Context, userID, in, out string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{userID, in, out})
	return nil
}

func (l *memLogs) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

type stubMedia struct {
	images map[string]*pkg.Image
}

func (m *stubMedia) FetchMedia(_ context.Context, id string) (*pkg.Image, error) {
	img, ok := m.images[id]
	if !ok {
		return nil, errors.New("media not found")
	}
	return img, nil
}

type stubGeocoder struct {
	loc pkg.Location
	err error
}

func (g *stubGeocoder) Reverse(_ context.Context, _, _ float64) (pkg.Location, error) {
	return g.loc, g.err
}

type countingPublisher struct {
	mu     sync.Mutex
	phones []string
}

func (c *countingPublisher) Notify(_ context.Context, phone string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phones = append(c.phones, phone)
	return nil
}

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) FirstSeen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func textMsg(from, text string) pkg.InboundMessage {
	return pkg.InboundMessage{From: from, Kind: pkg.KindText, Text: text}
}

func buttonMsg(from, id string) pkg.InboundMessage {
	return pkg.InboundMessage{From: from, Kind: pkg.KindButton, ReplyID: id}
}

func listMsg(from, id string) pkg.InboundMessage {
	return pkg.InboundMessage{From: from, Kind: pkg.KindList, ReplyID: id}
}

func imageMsg(from, mediaID string) pkg.InboundMessage {
	return pkg.InboundMessage{From: from, Kind: pkg.KindImage, MediaID: mediaID}
}
