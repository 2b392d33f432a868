package session

// IntakeStage tracks how much of the per-session reference data has been sent
// to the client. The home page sends the large reference bundle (profiles plus
// the medication suggestion index) once per session, then the smaller account
// bundle once more on the following view:
//
//	StageBundlePending  -> next GET / sends the full reference bundle
//	StageAccountPending -> next GET / sends only the account bundle
//	StageBundleOnly     -> next GET / sends the full reference bundle, then
//	                       skips the account step (it already ran)
//	StageComplete       -> GET / sends neither
//
// A fresh login starts at StageBundlePending and walks bundle -> account ->
// complete across the first two views. RewindBundle (/refresh) and
// RewindAccount (profile change) re-queue their respective step without
// disturbing the other.
type IntakeStage string

const (
	StageBundlePending  IntakeStage = "bundle_pending"
	StageAccountPending IntakeStage = "account_pending"
	StageBundleOnly     IntakeStage = "bundle_only"
	StageComplete       IntakeStage = "complete"
)

// Flash is a one-shot user-visible message carried across a redirect.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// State is the JSON document persisted in the session store.
type State struct {
	UserID     *int64      `json:"user_id,omitempty"`
	Stage      IntakeStage `json:"stage,omitempty"`
	Greeted    bool        `json:"greeted,omitempty"`
	Confirmed  bool        `json:"confirmed,omitempty"`
	ReturnPath string      `json:"return_path,omitempty"`
	Flashes    []Flash     `json:"flashes,omitempty"`
}

// Session wraps the persisted state with change tracking. Mutations mark the
// session dirty; the Manager writes dirty sessions back after the handler runs.
type Session struct {
	token    string
	oldToken string
	state    State
	dirty    bool
	fresh    bool
}

// New returns a session with the given token and empty state.
func New(token string) *Session {
	return &Session{token: token, fresh: true, dirty: true}
}

func restore(token string, st State) *Session {
	return &Session{token: token, state: st}
}

func (s *Session) Token() string { return s.token }

// Rotate issues a fresh token for the session, invalidating the old one. Done
// on login so an attacker-supplied pre-login cookie never names an
// authenticated session.
func (s *Session) Rotate(newToken string) {
	if s.oldToken == "" {
		s.oldToken = s.token
	}
	s.token = newToken
	s.dirty = true
}

func (s *Session) UserID() (int64, bool) {
	if s.state.UserID == nil {
		return 0, false
	}
	return *s.state.UserID, true
}

func (s *Session) SetUserID(id int64) {
	s.state.UserID = &id
	s.dirty = true
}

func (s *Session) Stage() IntakeStage {
	if s.state.Stage == "" {
		return StageBundlePending
	}
	return s.state.Stage
}

func (s *Session) SetStage(st IntakeStage) {
	s.state.Stage = st
	s.dirty = true
}

// RewindBundle forces the next home view to resend the full reference bundle.
// Whether the account step is still owed is preserved.
func (s *Session) RewindBundle() {
	switch s.Stage() {
	case StageComplete:
		s.SetStage(StageBundleOnly)
	case StageAccountPending:
		s.SetStage(StageBundlePending)
	}
}

// RewindAccount forces at least the account bundle to resend on the next home
// view. Whether the full bundle is still owed is preserved.
func (s *Session) RewindAccount() {
	switch s.Stage() {
	case StageComplete:
		s.SetStage(StageAccountPending)
	case StageBundleOnly:
		s.SetStage(StageBundlePending)
	}
}

func (s *Session) Greeted() bool { return s.state.Greeted }

func (s *Session) SetGreeted(v bool) {
	s.state.Greeted = v
	s.dirty = true
}

func (s *Session) Confirmed() bool { return s.state.Confirmed }

func (s *Session) SetConfirmed(v bool) {
	s.state.Confirmed = v
	s.dirty = true
}

// SetReturnPath remembers where the user was going before the confirm gate
// redirected them, so /check can send them back.
func (s *Session) SetReturnPath(p string) {
	s.state.ReturnPath = p
	s.dirty = true
}

// PopReturnPath consumes the stored return path, or returns fallback.
func (s *Session) PopReturnPath(fallback string) string {
	p := s.state.ReturnPath
	if p == "" {
		return fallback
	}
	s.state.ReturnPath = ""
	s.dirty = true
	return p
}

// Flash queues a one-shot message for the next rendered response.
func (s *Session) Flash(level, message string) {
	s.state.Flashes = append(s.state.Flashes, Flash{Level: level, Message: message})
	s.dirty = true
}

// PopFlashes consumes all queued messages. Never returns nil so JSON encodes
// as [] rather than null.
func (s *Session) PopFlashes() []Flash {
	out := s.state.Flashes
	if len(out) > 0 {
		s.state.Flashes = nil
		s.dirty = true
	}
	if out == nil {
		out = []Flash{}
	}
	return out
}

// Clear wipes all session state unconditionally (logout).
func (s *Session) Clear() {
	s.state = State{}
	s.dirty = true
}
