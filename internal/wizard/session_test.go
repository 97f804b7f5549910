package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fforsikring/prisberegner/internal/registry"
	"github.com/fforsikring/prisberegner/internal/roles"
)

type fakeLookup struct {
	mu      sync.Mutex
	calls   []string
	answers map[string]*registry.Company
	err     error
}

func (f *fakeLookup) LookupCVR(_ context.Context, cvr string) (*registry.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cvr)
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.answers[cvr]; ok {
		return c, nil
	}
	return &registry.Company{}, nil
}

// manualScheduler collects deferred work so tests control when the
// debounce and bridge timers fire.
type manualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (m *manualScheduler) schedule(_ time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
}

func (m *manualScheduler) runAll() {
	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
}

func testTable(t *testing.T) *roles.PriceTable {
	t.Helper()
	table, err := roles.New([]roles.Position{
		{Label: "Elektriker", Price: 1500},
		{Label: "Murer", Price: 1700},
		{Label: "Tømrer", Price: 1200},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return table
}

func newTestSession(t *testing.T, cfg Config) (*Session, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	cfg.Schedule = sched.schedule
	if cfg.Table == nil {
		cfg.Table = testTable(t)
	}
	return NewSession("test-session", cfg), sched
}

func TestNewSessionDefaults(t *testing.T) {
	sess, _ := newTestSession(t, Config{})

	state := sess.Snapshot()
	if state.Step != StepCompany {
		t.Fatalf("expected step %d, got %d", StepCompany, state.Step)
	}
	if state.EmployeeCount != 1 {
		t.Fatalf("expected one employee slot, got %d", state.EmployeeCount)
	}
	if len(state.Roles) != 1 || state.Roles[0] != "Elektriker" {
		t.Fatalf("expected default role Elektriker, got %v", state.Roles)
	}
}

func TestSetCVRInputCleansAndLooksUp(t *testing.T) {
	lookup := &fakeLookup{answers: map[string]*registry.Company{
		"12345678": {CVR: "12345678", Name: "Acme A/S"},
	}}
	sess, sched := newTestSession(t, Config{Lookup: lookup})

	sess.SetCVRInput("DK 12 34 56 78 99")
	sched.runAll()

	state := sess.Snapshot()
	if state.CVRDigits != "12345678" {
		t.Fatalf("expected cleaned digits 12345678, got %q", state.CVRDigits)
	}
	if state.Company == nil || state.Company.Name != "Acme A/S" {
		t.Fatalf("expected company resolved, got %+v", state.Company)
	}
}

func TestSetCVRInputSkipsLookupBelowEightDigits(t *testing.T) {
	lookup := &fakeLookup{}
	sess, sched := newTestSession(t, Config{Lookup: lookup})

	sess.SetCVRInput("1234")
	sched.runAll()

	if len(lookup.calls) != 0 {
		t.Fatalf("expected no lookup for short input, got %v", lookup.calls)
	}
}

func TestStaleLookupNeverOverwritesNewerInput(t *testing.T) {
	lookup := &fakeLookup{answers: map[string]*registry.Company{
		"11111111": {CVR: "11111111", Name: "Gammel ApS"},
		"22222222": {CVR: "22222222", Name: "Ny ApS"},
	}}
	sess, sched := newTestSession(t, Config{Lookup: lookup})

	sess.SetCVRInput("11111111")
	first := &manualScheduler{}
	first.queue, sched.queue = sched.queue, nil

	sess.SetCVRInput("22222222")
	sched.runAll() // newer lookup resolves first
	first.runAll() // stale one fires afterwards

	state := sess.Snapshot()
	if state.Company == nil || state.Company.Name != "Ny ApS" {
		t.Fatalf("expected the newer lookup to win, got %+v", state.Company)
	}
}

func TestLookupOutcomes(t *testing.T) {
	t.Run("quota exhausted leaves a notice but no company", func(t *testing.T) {
		lookup := &fakeLookup{err: registry.ErrQuotaExceeded}
		sess, sched := newTestSession(t, Config{Lookup: lookup})

		sess.SetCVRInput("12345678")
		sched.runAll()

		state := sess.Snapshot()
		if state.Company != nil {
			t.Fatalf("expected no company, got %+v", state.Company)
		}
		if state.CompanyNotice == "" {
			t.Fatal("expected a quota notice")
		}
	})

	t.Run("unusable record reads as not found", func(t *testing.T) {
		lookup := &fakeLookup{} // default answer is an empty record
		sess, sched := newTestSession(t, Config{Lookup: lookup})

		sess.SetCVRInput("12345678")
		sched.runAll()

		state := sess.Snapshot()
		if state.Company != nil {
			t.Fatalf("expected no company, got %+v", state.Company)
		}
		if state.CompanyNotice == "" {
			t.Fatal("expected a not-found notice")
		}
	})

	t.Run("failed lookup never blocks advancing", func(t *testing.T) {
		lookup := &fakeLookup{err: errors.New("boom")}
		sess, sched := newTestSession(t, Config{Lookup: lookup})

		sess.SetCVRInput("12345678")
		sched.runAll()

		if err := sess.AdvanceFromStep1(); err != nil {
			t.Fatalf("expected advance to succeed, got %v", err)
		}
	})
}

func TestAdvanceFromStep1RequiresEightDigits(t *testing.T) {
	sess, _ := newTestSession(t, Config{})

	sess.SetCVRInput("1234")
	if err := sess.AdvanceFromStep1(); !errors.Is(err, ErrCVRIncomplete) {
		t.Fatalf("expected ErrCVRIncomplete, got %v", err)
	}

	sess.SetCVRInput("12345678")
	if err := sess.AdvanceFromStep1(); err != nil {
		t.Fatalf("expected advance to succeed, got %v", err)
	}
	if got := sess.Snapshot().Step; got != StepEmployees {
		t.Fatalf("expected step %d, got %d", StepEmployees, got)
	}
}

func advanceToEmployees(t *testing.T, sess *Session) {
	t.Helper()
	sess.SetCVRInput("12345678")
	if err := sess.AdvanceFromStep1(); err != nil {
		t.Fatalf("advance to employees: %v", err)
	}
}

func TestSetEmployeeCount(t *testing.T) {
	sess, _ := newTestSession(t, Config{})
	advanceToEmployees(t, sess)

	if err := sess.SetEmployeeCount(3); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if err := sess.SetRole(1, "Murer"); err != nil {
		t.Fatalf("set role: %v", err)
	}

	if err := sess.SetEmployeeCount(2); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	state := sess.Snapshot()
	if len(state.Roles) != 2 || state.Roles[1] != "Murer" {
		t.Fatalf("expected shrink to preserve selections, got %v", state.Roles)
	}

	if err := sess.SetEmployeeCount(4); err != nil {
		t.Fatalf("regrow: %v", err)
	}
	state = sess.Snapshot()
	if state.Roles[1] != "Murer" {
		t.Fatalf("expected surviving slot to keep Murer, got %v", state.Roles)
	}
	if state.Roles[3] != "Elektriker" {
		t.Fatalf("expected new slot to default to Elektriker, got %v", state.Roles)
	}

	for _, bad := range []int{0, -1, 11} {
		if err := sess.SetEmployeeCount(bad); !errors.Is(err, ErrCountOutOfRange) {
			t.Fatalf("count %d: expected ErrCountOutOfRange, got %v", bad, err)
		}
	}
}

func TestSetRoleRejectsUnknownLabelAndBadSlot(t *testing.T) {
	sess, _ := newTestSession(t, Config{})
	advanceToEmployees(t, sess)

	if err := sess.SetRole(0, "Astronaut"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if err := sess.SetRole(5, "Murer"); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("expected ErrSlotOutOfRange, got %v", err)
	}
}

func TestAdvanceFromStep2ComputesTotalAfterBridge(t *testing.T) {
	sess, sched := newTestSession(t, Config{})
	advanceToEmployees(t, sess)

	if err := sess.SetEmployeeCount(2); err != nil {
		t.Fatalf("set count: %v", err)
	}
	if err := sess.SetRole(0, "Tømrer"); err != nil {
		t.Fatalf("set role 0: %v", err)
	}
	if err := sess.SetRole(1, "Murer"); err != nil {
		t.Fatalf("set role 1: %v", err)
	}

	if err := sess.AdvanceFromStep2(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	state := sess.Snapshot()
	if !state.Calculating || state.Step != StepEmployees {
		t.Fatalf("expected bridge interstitial before the result step, got %+v", state)
	}
	if state.Total != 2900 {
		t.Fatalf("expected total 2900, got %d", state.Total)
	}

	sched.runAll()
	state = sess.Snapshot()
	if state.Calculating || state.Step != StepResult {
		t.Fatalf("expected result step after bridge, got %+v", state)
	}
}

func TestAdvanceFromStep2ReportsFirstInvalidSlot(t *testing.T) {
	sess, _ := newTestSession(t, Config{})
	advanceToEmployees(t, sess)

	if err := sess.SetEmployeeCount(3); err != nil {
		t.Fatalf("set count: %v", err)
	}
	sess.mu.Lock()
	sess.state.Roles[1] = "" // cleared selection
	sess.state.Roles[2] = ""
	sess.mu.Unlock()

	err := sess.AdvanceFromStep2()
	var slotErr *SlotError
	if !errors.As(err, &slotErr) {
		t.Fatalf("expected SlotError, got %v", err)
	}
	if slotErr.Slot != 2 {
		t.Fatalf("expected first invalid slot 2, got %d", slotErr.Slot)
	}
}

func TestRetreat(t *testing.T) {
	sess, sched := newTestSession(t, Config{})
	advanceToEmployees(t, sess)
	if err := sess.AdvanceFromStep2(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	sched.runAll()

	if err := sess.Retreat(StepResult); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected ErrWrongStep for forward retreat, got %v", err)
	}
	if err := sess.Retreat(StepEmployees); err != nil {
		t.Fatalf("retreat: %v", err)
	}

	state := sess.Snapshot()
	if state.Step != StepEmployees {
		t.Fatalf("expected step %d, got %d", StepEmployees, state.Step)
	}
	if state.Total == 0 {
		t.Fatal("expected the computed total to survive a retreat")
	}
}

func completeToResult(t *testing.T, sess *Session, sched *manualScheduler) {
	t.Helper()
	advanceToEmployees(t, sess)
	if err := sess.AdvanceFromStep2(); err != nil {
		t.Fatalf("advance to result: %v", err)
	}
	sched.runAll()
}

func TestSubmit(t *testing.T) {
	t.Run("rejects invalid phone", func(t *testing.T) {
		sess, sched := newTestSession(t, Config{})
		completeToResult(t, sess, sched)

		if err := sess.Submit("1234", Attribution{}); !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("expected ErrInvalidPhone, got %v", err)
		}
	})

	t.Run("dispatches the lead and locks the session", func(t *testing.T) {
		received := make(chan Submission, 1)
		sess, sched := newTestSession(t, Config{
			Submit: func(sub Submission) { received <- sub },
		})
		completeToResult(t, sess, sched)

		if err := sess.Submit("+45 12 34 56 78", Attribution{Page: "/forsikring"}); err != nil {
			t.Fatalf("submit: %v", err)
		}

		select {
		case sub := <-received:
			if sub.Phone != "12345678" {
				t.Fatalf("expected normalized phone 12345678, got %q", sub.Phone)
			}
			if sub.CVR != "12345678" {
				t.Fatalf("expected cvr 12345678, got %q", sub.CVR)
			}
			if sub.Attribution.Page != "/forsikring" {
				t.Fatalf("expected page attribution, got %+v", sub.Attribution)
			}
		case <-time.After(time.Second):
			t.Fatal("submission never dispatched")
		}

		if err := sess.Submit("+45 12 34 56 78", Attribution{}); !errors.Is(err, ErrAlreadySubmitted) {
			t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
		}
	})

	t.Run("buffers the lead_submitted frame event", func(t *testing.T) {
		sess, sched := newTestSession(t, Config{})
		completeToResult(t, sess, sched)
		sess.DrainMessages()

		if err := sess.Submit("12345678", Attribution{}); err != nil {
			t.Fatalf("submit: %v", err)
		}

		var event *FrameMessage
		for _, msg := range sess.DrainMessages() {
			if msg.Type == MessageTypeEvent {
				m := msg
				event = &m
			}
		}
		if event == nil {
			t.Fatal("expected a lead_submitted frame event")
		}
		if event.Event != EventLeadSubmitted {
			t.Fatalf("expected event %q, got %q", EventLeadSubmitted, event.Event)
		}
		if event.Total != sess.Snapshot().Total {
			t.Fatalf("expected event total %d, got %d", sess.Snapshot().Total, event.Total)
		}
	})
}

func TestDrainMessagesClearsBuffer(t *testing.T) {
	sess, _ := newTestSession(t, Config{})

	sess.SetCVRInput("12")
	if msgs := sess.DrainMessages(); len(msgs) == 0 {
		t.Fatal("expected a height message after input")
	}
	if msgs := sess.DrainMessages(); len(msgs) != 0 {
		t.Fatalf("expected drained buffer, got %v", msgs)
	}
}
