package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fforsikring/prisberegner/internal/pricing"
	"github.com/fforsikring/prisberegner/internal/registry"
	"github.com/fforsikring/prisberegner/internal/roles"
	"github.com/fforsikring/prisberegner/internal/validate"
)

const (
	defaultMaxEmployees = 10
	lookupTimeout       = 8 * time.Second
)

var (
	ErrCVRIncomplete    = errors.New("cvr must be eight digits")
	ErrWrongStep        = errors.New("operation not valid on current step")
	ErrCountOutOfRange  = errors.New("employee count out of range")
	ErrSlotOutOfRange   = errors.New("employee slot out of range")
	ErrUnknownRole      = errors.New("unknown role label")
	ErrInvalidPhone     = errors.New("phone must be a valid danish number")
	ErrAlreadySubmitted = errors.New("lead already submitted")
)

// SlotError reports the first employee slot without a valid role
// selection, counted from one the way the widget labels them.
type SlotError struct {
	Slot int
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("vælg en gyldig stilling for medarbejder %d", e.Slot)
}

// Attribution is the page context captured with a submission.
type Attribution struct {
	Page        string
	Referrer    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
}

// Submission is the finished lead handed to the dispatch callback.
type Submission struct {
	CVR         string
	Phone       string
	Total       int
	Roles       []string
	Company     *registry.Company
	Attribution Attribution
	SubmittedAt time.Time
}

// SubmitFunc receives a finished lead. It runs on its own goroutine;
// delivery failures must not surface back into the session.
type SubmitFunc func(Submission)

// Config wires a session's collaborators and timings.
type Config struct {
	Table        *roles.PriceTable
	Lookup       registry.Lookup
	Debounce     time.Duration
	BridgeDelay  time.Duration
	MaxEmployees int
	Submit       SubmitFunc

	// Schedule overrides deferred execution in tests. Nil means
	// time.AfterFunc.
	Schedule func(d time.Duration, fn func())
}

func (c Config) schedule(d time.Duration, fn func()) {
	if c.Schedule != nil {
		c.Schedule(d, fn)
		return
	}
	time.AfterFunc(d, fn)
}

func (c Config) maxEmployees() int {
	if c.MaxEmployees > 0 {
		return c.MaxEmployees
	}
	return defaultMaxEmployees
}

// Session drives one visitor through the calculator flow. All methods
// are safe for concurrent use; deferred work (debounced lookups, the
// bridge interstitial) re-locks before touching state.
type Session struct {
	id  string
	cfg Config

	mu        sync.Mutex
	state     State
	lookupSeq uint64
	messages  []FrameMessage
}

// NewSession starts a session at the company step with a single
// employee slot preset to the catalogue default.
func NewSession(id string, cfg Config) *Session {
	s := &Session{id: id, cfg: cfg}
	s.state = State{
		Step:          StepCompany,
		EmployeeCount: 1,
		Roles:         []string{cfg.Table.First()},
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	out.Roles = append([]string(nil), s.state.Roles...)
	return out
}

// DrainMessages returns the frame messages buffered since the previous
// call and clears the buffer.
func (s *Session) DrainMessages() []FrameMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.messages
	s.messages = nil
	return out
}

// SetCVRInput accepts raw field text, keeps the cleaned digits and
// schedules a debounced registry lookup once eight digits are present.
// Every keystroke bumps the lookup token so a slow response for an
// earlier value can never overwrite the result of a later one.
func (s *Session) SetCVRInput(input string) {
	s.mu.Lock()
	digits := validate.CleanCVR(input)
	s.state.CVRDigits = digits
	s.state.Company = nil
	s.state.CompanyNotice = ""
	s.lookupSeq++
	token := s.lookupSeq
	s.notifyHeight()
	s.mu.Unlock()

	if len(digits) != 8 || s.cfg.Lookup == nil {
		return
	}

	s.cfg.schedule(s.cfg.Debounce, func() {
		s.runLookup(token, digits)
	})
}

func (s *Session) runLookup(token uint64, digits string) {
	s.mu.Lock()
	stale := token != s.lookupSeq
	s.mu.Unlock()
	if stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	company, err := s.cfg.Lookup.LookupCVR(ctx, digits)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.lookupSeq {
		return
	}

	switch {
	case errors.Is(err, registry.ErrQuotaExceeded):
		s.state.CompanyNotice = "Vi kunne ikke slå virksomheden op lige nu. Du kan fortsætte alligevel."
	case err != nil:
		log.Printf("session=%s cvr lookup failed: %v", s.id, err)
		s.state.CompanyNotice = "Opslag fejlede. Du kan fortsætte alligevel."
	case company == nil || !company.Usable():
		s.state.CompanyNotice = "Vi fandt ingen virksomhed med det CVR-nummer."
	default:
		s.state.Company = company
	}
	s.notifyHeight()
}

// AdvanceFromStep1 moves to the employee step. Only the eight-digit
// gate applies; a missing or failed company lookup never blocks the
// visitor.
func (s *Session) AdvanceFromStep1() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Step != StepCompany {
		return ErrWrongStep
	}
	if !validate.ValidCVR(s.state.CVRDigits) {
		return ErrCVRIncomplete
	}

	s.state.Step = StepEmployees
	s.notifyHeight()
	return nil
}

// SetEmployeeCount resizes the role slots. Shrinking truncates from the
// end, growing fills new slots with the catalogue default; surviving
// slots keep their selection.
func (s *Session) SetEmployeeCount(count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Step != StepEmployees {
		return ErrWrongStep
	}
	if count < 1 || count > s.cfg.maxEmployees() {
		return ErrCountOutOfRange
	}

	current := s.state.Roles
	next := make([]string, count)
	for i := range next {
		if i < len(current) {
			next[i] = current[i]
		} else {
			next[i] = s.cfg.Table.First()
		}
	}
	s.state.EmployeeCount = count
	s.state.Roles = next
	s.notifyHeight()
	return nil
}

// SetRole writes a role selection into one employee slot. Index is
// zero-based.
func (s *Session) SetRole(index int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Step != StepEmployees {
		return ErrWrongStep
	}
	if index < 0 || index >= len(s.state.Roles) {
		return ErrSlotOutOfRange
	}
	if !s.cfg.Table.Has(label) {
		return ErrUnknownRole
	}

	s.state.Roles[index] = label
	return nil
}

// AdvanceFromStep2 validates every slot, computes the total and starts
// the bridge interstitial. The result step is shown once the bridge
// delay elapses.
func (s *Session) AdvanceFromStep2() error {
	s.mu.Lock()

	if s.state.Step != StepEmployees || s.state.Calculating {
		s.mu.Unlock()
		return ErrWrongStep
	}

	for i, label := range s.state.Roles {
		if label == "" || !s.cfg.Table.Has(label) {
			s.mu.Unlock()
			return &SlotError{Slot: i + 1}
		}
	}

	s.state.Total = pricing.Total(s.state.Roles, s.cfg.Table)
	s.state.Calculating = true
	s.notifyHeight()
	s.mu.Unlock()

	s.cfg.schedule(s.cfg.BridgeDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.state.Calculating {
			return
		}
		s.state.Calculating = false
		s.state.Step = StepResult
		s.notifyHeight()
	})
	return nil
}

// Retreat jumps back to an earlier step. Selections and the computed
// total are kept so the visitor can adjust and recalculate.
func (s *Session) Retreat(to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Submitted {
		return ErrAlreadySubmitted
	}
	if to != StepCompany && to != StepEmployees {
		return ErrWrongStep
	}
	if to >= s.state.Step && !s.state.Calculating {
		return ErrWrongStep
	}

	s.state.Calculating = false
	s.state.Step = to
	s.notifyHeight()
	return nil
}

// Submit validates the phone number, hands the finished lead to the
// dispatch callback and locks the session. Dispatch runs fire and
// forget; the visitor sees the confirmation regardless of delivery.
func (s *Session) Submit(phone string, attr Attribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Submitted {
		return ErrAlreadySubmitted
	}
	if s.state.Step != StepResult {
		return ErrWrongStep
	}

	normalized := validate.NormalizeDanishPhone(phone)
	if !validate.ValidPhone(normalized) {
		return ErrInvalidPhone
	}

	s.state.Submitted = true
	s.messages = append(s.messages, FrameMessage{
		Type:  MessageTypeEvent,
		Event: EventLeadSubmitted,
		Total: s.state.Total,
	})
	s.notifyHeight()

	if s.cfg.Submit != nil {
		sub := Submission{
			CVR:         s.state.CVRDigits,
			Phone:       normalized,
			Total:       s.state.Total,
			Roles:       append([]string(nil), s.state.Roles...),
			Company:     s.state.Company,
			Attribution: attr,
			SubmittedAt: time.Now(),
		}
		go s.cfg.Submit(sub)
	}
	return nil
}

// notifyHeight buffers a re-measure hint for the embedding page.
// Callers hold the session lock. Consecutive hints collapse.
func (s *Session) notifyHeight() {
	if n := len(s.messages); n > 0 && s.messages[n-1].Type == MessageTypeHeight {
		return
	}
	s.messages = append(s.messages, FrameMessage{Type: MessageTypeHeight})
}
