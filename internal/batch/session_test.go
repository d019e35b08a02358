package batch

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/batchlabel/internal/labelplan"
	"github.com/kingrea/batchlabel/internal/lookup"
)

var testTable = lookup.MustNew([]lookup.Entry{
	{Code: "WIP-1001", Name: "Vanilla Base"},
	{Code: "WIP-1002", Name: "Chocolate Fudge Syrup"},
})

func fixedNow() time.Time {
	return time.Date(2025, time.January, 1, 9, 30, 0, 0, time.UTC)
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	seq := 0
	return NewSession(testTable, 10,
		WithClock(fixedNow),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
}

func fillReady(s *Session) {
	s.SetWipCode("wip-1001")
	s.SetPrepDate("2025-01-01")
	s.SetSupervisor("Jane Smith")
	s.SetQuantity("45")
}

func TestScenarioKnownCode(t *testing.T) {
	s := newTestSession(t)
	matched := s.SetWipCode("WIP-1001")
	s.SetQuantity("45")
	s.SetPrepDate("2025-01-01")

	require.True(t, matched)
	assert.Equal(t, "Vanilla Base", s.Form().MixName)
	d := s.Derived()
	assert.True(t, d.KnownCode)
	assert.Equal(t, 3, d.Plan.LabelCount)
	assert.Equal(t, "11 Jan 2025", d.UseByDisplay())
}

func TestPrepDateDefaultsToToday(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "2025-01-01", s.Form().PrepDate)
}

func TestCodeIsUpperCased(t *testing.T) {
	s := newTestSession(t)
	s.SetWipCode("wip-1002")
	assert.Equal(t, "WIP-1002", s.Form().WipCode)
	assert.Equal(t, "Chocolate Fudge Syrup", s.Form().MixName)
}

func TestKnownCodeOverwritesManualMixName(t *testing.T) {
	s := newTestSession(t)
	s.SetMixName("My Own Name")
	s.SetWipCode("WIP-1001")
	assert.Equal(t, "Vanilla Base", s.Form().MixName)
}

func TestNonMatchClearsMixNameOnEveryEdit(t *testing.T) {
	s := newTestSession(t)
	s.SetWipCode("WIP-1001")
	s.SetWipCode("WIP-100")
	assert.Empty(t, s.Form().MixName)

	// Manual entry typed while the code is still partial is erased by the
	// next non-matching keystroke.
	s.SetMixName("Hand Typed")
	s.SetWipCode("WIP-10")
	assert.Empty(t, s.Form().MixName)
}

func TestUseByEmptyWithoutPrepDate(t *testing.T) {
	s := newTestSession(t)
	s.SetPrepDate("")
	assert.Empty(t, s.Derived().UseByDisplay())
	assert.Empty(t, UseByDisplay("", 10))
	assert.Empty(t, UseByDisplay("not-a-date", 10))
	assert.Equal(t, "11 Jan 2025", UseByDisplay("2025-01-01", 10))
}

func TestSubmitGateRequiresEveryField(t *testing.T) {
	mutations := map[string]func(*Session){
		"no code":       func(s *Session) { s.SetWipCode("") },
		"no mix":        func(s *Session) { s.SetMixName("  ") },
		"no prep":       func(s *Session) { s.SetPrepDate("") },
		"bad prep":      func(s *Session) { s.SetPrepDate("2025-02-30") },
		"no supervisor": func(s *Session) { s.SetSupervisor("") },
		"no qty":        func(s *Session) { s.SetQuantity("") },
		"text qty":      func(s *Session) { s.SetQuantity("abc") },
		"low qty":       func(s *Session) { s.SetQuantity("0.999") },
		"high qty":      func(s *Session) { s.SetQuantity("500.0001") },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := newTestSession(t)
			fillReady(s)
			require.True(t, s.CanSubmit())
			mutate(s)
			assert.False(t, s.CanSubmit())
			assert.Equal(t, StateEditing, s.State())
			_, err := s.Submit()
			assert.ErrorIs(t, err, ErrNotReady)
			assert.Empty(t, s.History())
		})
	}
}

func TestValidationWarningSurfacesWithoutBlockingEdits(t *testing.T) {
	s := newTestSession(t)
	fillReady(s)
	s.SetQuantity("600")
	assert.Equal(t, labelplan.RangeWarning, s.Derived().Plan.Warning)
	s.SetQuantity("60")
	assert.Empty(t, s.Derived().Plan.Warning)
	assert.True(t, s.CanSubmit())
}

func TestSubmitBuildsRecordAndDescriptors(t *testing.T) {
	s := newTestSession(t)
	fillReady(s)
	require.Equal(t, StateReady, s.State())

	sub, err := s.Submit()
	require.NoError(t, err)

	prep := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	useBy := time.Date(2025, time.January, 11, 0, 0, 0, 0, time.UTC)
	wantRecord := Record{
		ID:         "id-1",
		WipCode:    "WIP-1001",
		MixName:    "Vanilla Base",
		PrepDate:   prep,
		UseByDate:  useBy,
		Supervisor: "Jane Smith",
		QAQuantity: 45,
		LabelCount: 3,
		CreatedAt:  fixedNow(),
	}
	if diff := cmp.Diff(wantRecord, sub.Record); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, sub.Labels, 3)
	for i, label := range sub.Labels {
		assert.Equal(t, i+1, label.CopyNumber)
		assert.Equal(t, 3, label.TotalCopies)
		assert.Equal(t, "id-1", label.BatchID)
		assert.Equal(t, useBy, label.UseByDate)
	}
	assert.Equal(t, StateSubmitted, s.State())
}

func TestSubmitRetainsFieldsAndCycles(t *testing.T) {
	s := newTestSession(t)
	fillReady(s)
	before := s.Form()
	_, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, before, s.Form())

	s.SetQuantity("120")
	assert.Equal(t, StateReady, s.State())
	sub, err := s.Submit()
	require.NoError(t, err)
	assert.Len(t, sub.Labels, 6)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "id-2", history[0].ID, "most recent first")
	assert.Equal(t, "id-1", history[1].ID)
	assert.Len(t, s.Labels(), 6, "latest set replaces the previous one")
}

func TestHistoryIsACopy(t *testing.T) {
	s := newTestSession(t)
	fillReady(s)
	_, err := s.Submit()
	require.NoError(t, err)
	h := s.History()
	h[0].MixName = "tampered"
	assert.Equal(t, "Vanilla Base", s.History()[0].MixName)
}

func TestDescriptorCountMatchesPlanForEveryValidQuantity(t *testing.T) {
	s := newTestSession(t)
	fillReady(s)
	for q := 1; q <= 500; q += 7 {
		s.SetQuantity(fmt.Sprint(q))
		sub, err := s.Submit()
		require.NoError(t, err)
		n := labelplan.ComputeLabelPlan(fmt.Sprint(q)).LabelCount
		require.Len(t, sub.Labels, n)
		for i, l := range sub.Labels {
			require.Equal(t, i+1, l.CopyNumber)
			require.Equal(t, n, l.TotalCopies)
		}
	}
}

func TestResolveBusyGuard(t *testing.T) {
	s := newTestSession(t)
	s.SetWipCode("WIP-9999")
	assert.True(t, s.OfferResolve())

	code, ok := s.BeginResolve()
	require.True(t, ok)
	assert.Equal(t, "WIP-9999", code)
	assert.True(t, s.Resolving())
	assert.False(t, s.OfferResolve())

	_, again := s.BeginResolve()
	assert.False(t, again, "second request while busy must be refused")

	s.SetPrepDate("2025-01-01")
	s.SetSupervisor("Vimal")
	s.SetQuantity("10")
	s.SetMixName("typed")
	assert.False(t, s.CanSubmit(), "submission disabled while resolving")

	applied := s.FinishResolve(code, "Hazelnut Base")
	assert.True(t, applied)
	assert.False(t, s.Resolving())
	assert.Equal(t, "Hazelnut Base", s.Form().MixName)
	assert.True(t, s.CanSubmit())
}

func TestResolveStaleAnswerIsDiscarded(t *testing.T) {
	s := newTestSession(t)
	s.SetWipCode("WIP-9999")
	code, ok := s.BeginResolve()
	require.True(t, ok)
	s.SetWipCode("WIP-1001")
	assert.False(t, s.FinishResolve(code, "Other"))
	assert.Equal(t, "Vanilla Base", s.Form().MixName)
	assert.False(t, s.Resolving(), "busy flag always clears")
}

func TestOfferResolveConditions(t *testing.T) {
	s := newTestSession(t)
	s.SetWipCode("WIP")
	assert.False(t, s.OfferResolve(), "code too short")
	s.SetWipCode("WIP-1001")
	assert.False(t, s.OfferResolve(), "known code")
	s.SetWipCode("WIP-8")
	s.SetMixName("x")
	assert.False(t, s.OfferResolve(), "mix name present")
	_, ok := (&Session{table: testTable}).BeginResolve()
	assert.False(t, ok, "empty code")
}

func TestIDs(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, NewID())

	fb := fallbackID(time.UnixMilli(1700000000000))
	assert.True(t, strings.HasPrefix(fb, "batch-1700000000000-"))
	assert.Len(t, strings.TrimPrefix(fb, "batch-1700000000000-"), 9)

	assert.Equal(t, "CDEF", ShortID("ab-cd-ef"))
	assert.Equal(t, "AB", ShortID("ab"))
}

func TestEmptyIDFallsBack(t *testing.T) {
	s := NewSession(testTable, 10, WithClock(fixedNow), WithIDGenerator(func() string { return "" }))
	fillReady(s)
	sub, err := s.Submit()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sub.Record.ID, "batch-"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "editing", StateEditing.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "submitted", StateSubmitted.String())
}
