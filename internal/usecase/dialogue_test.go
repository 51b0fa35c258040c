package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"plateful-agent/internal/domain"
)

type stubFinder struct {
	result    LookupResult
	locations []string
}

func (s *stubFinder) Find(_ context.Context, location string) LookupResult {
	s.locations = append(s.locations, location)
	res := s.result
	res.Location = location
	return res
}

type recordCall struct {
	name  string
	phone string
	orgs  []domain.Organization
}

type stubRecorder struct {
	err   error
	calls []recordCall
}

func (s *stubRecorder) Record(_ context.Context, name, phone string, orgs []domain.Organization) error {
	s.calls = append(s.calls, recordCall{name: name, phone: phone, orgs: orgs})
	return s.err
}

var delhiOrgs = []domain.Organization{
	{Name: "Feeding India", Address: "Saket", Phone: "011 555", Website: "https://feedingindia.org"},
	{Name: "Robin Hood Army", Address: "N/A", Phone: "Not available", Website: "Not available"},
}

func found(orgs []domain.Organization) *stubFinder {
	return &stubFinder{result: LookupResult{Kind: LookupFound, Organizations: orgs}}
}

func newTestDialogue(t *testing.T, f Finder, r Recorder) *Dialogue {
	t.Helper()
	d, err := NewDialogue(f, r)
	require.NoError(t, err)
	return d
}

func TestNewDialogue_ValidatesDependencies(t *testing.T) {
	_, err := NewDialogue(nil, &stubRecorder{})
	require.Error(t, err)

	_, err = NewDialogue(found(nil), nil)
	require.Error(t, err)
}

func TestAdvance_FullDonationFlow(t *testing.T) {
	finder := found(delhiOrgs)
	recorder := &stubRecorder{}
	d := newTestDialogue(t, finder, recorder)
	ctx := context.Background()

	s, reply := d.Advance(ctx, domain.Session{ID: "s1"}, "Where can I donate in Delhi?")
	require.Equal(t, []string{"Delhi"}, finder.locations)
	require.Equal(t, domain.StepAwaitingConfirmation, s.Conversation.Step)
	require.Equal(t, delhiOrgs, s.Organizations)
	require.Contains(t, reply, "I found these organizations in Delhi:")
	require.Contains(t, reply, "**1. Feeding India**")
	require.Contains(t, reply, "**2. Robin Hood Army**")
	require.Contains(t, reply, "   - **Website**: https://feedingindia.org")
	require.Contains(t, reply, replyConfirmPrompt)

	s, reply = d.Advance(ctx, s, "yes")
	require.Equal(t, replyAskName, reply)
	require.Equal(t, domain.StepAwaitingName, s.Conversation.Step)

	s, reply = d.Advance(ctx, s, "Asha")
	require.Equal(t, replyAskPhone, reply)
	require.Equal(t, domain.Conversation{Step: domain.StepAwaitingPhone, DonorName: "Asha"}, s.Conversation)

	s, reply = d.Advance(ctx, s, "9999999999")
	require.Equal(t, replyLogged, reply)
	require.Equal(t, domain.Conversation{}, s.Conversation)
	require.Equal(t, []recordCall{{name: "Asha", phone: "9999999999", orgs: delhiOrgs}}, recorder.calls)
	require.Equal(t, delhiOrgs, s.Organizations, "cache survives the reset")
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	d := newTestDialogue(t, found(delhiOrgs), &stubRecorder{})
	in := domain.Session{ID: "s1", Conversation: domain.Conversation{Step: domain.StepAwaitingName}}

	_, _ = d.Advance(context.Background(), in, "Asha")
	require.Equal(t, domain.StepAwaitingName, in.Conversation.Step)
	require.Empty(t, in.Conversation.DonorName)
}

func TestAdvance_NameStoredVerbatim(t *testing.T) {
	d := newTestDialogue(t, found(nil), &stubRecorder{})
	for _, name := range []string{"Asha", "  Dr. Asha Rao  ", "yes", "find donate in Delhi"} {
		s, reply := d.Advance(context.Background(), domain.Session{Conversation: domain.Conversation{Step: domain.StepAwaitingName}}, name)
		require.Equal(t, replyAskPhone, reply)
		require.Equal(t, domain.StepAwaitingPhone, s.Conversation.Step)
		require.Equal(t, name, s.Conversation.DonorName)
	}
}

func TestAdvance_Confirmation(t *testing.T) {
	cases := []struct {
		input    string
		accepted bool
	}{
		{"yes", true},
		{"YES", true},
		{"  Yes \n", true},
		{"yes please", false},
		{"y", false},
		{"no", false},
		{"sure", false},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			d := newTestDialogue(t, found(nil), &stubRecorder{})
			in := domain.Session{Conversation: domain.Conversation{Step: domain.StepAwaitingConfirmation}, Organizations: delhiOrgs}
			s, reply := d.Advance(context.Background(), in, tc.input)
			if tc.accepted {
				require.Equal(t, replyAskName, reply)
				require.Equal(t, domain.StepAwaitingName, s.Conversation.Step)
				return
			}
			require.Equal(t, replyDeclined, reply)
			require.Equal(t, domain.Conversation{}, s.Conversation)
		})
	}
}

func TestAdvance_ConfirmationInterceptsNewSearch(t *testing.T) {
	finder := found(delhiOrgs)
	d := newTestDialogue(t, finder, &stubRecorder{})
	in := domain.Session{Conversation: domain.Conversation{Step: domain.StepAwaitingConfirmation}}

	_, reply := d.Advance(context.Background(), in, "Where can I donate in Mumbai?")
	require.Equal(t, replyDeclined, reply)
	require.Empty(t, finder.locations)
}

func TestAdvance_LogFailureResetsContext(t *testing.T) {
	recorder := &stubRecorder{err: newError(ErrorLogging, "sheet_open_error", errors.New("invalid_grant"))}
	d := newTestDialogue(t, found(nil), recorder)
	in := domain.Session{Conversation: domain.Conversation{Step: domain.StepAwaitingPhone, DonorName: "Asha"}}

	s, reply := d.Advance(context.Background(), in, "9999999999")
	require.Equal(t, replyLogFailed, reply)
	require.Equal(t, domain.Conversation{}, s.Conversation)
	require.Len(t, recorder.calls, 1)
}

func TestAdvance_EmptyCacheStillLogs(t *testing.T) {
	recorder := &stubRecorder{}
	d := newTestDialogue(t, found(nil), recorder)
	in := domain.Session{Conversation: domain.Conversation{Step: domain.StepAwaitingPhone, DonorName: "Asha"}}

	_, reply := d.Advance(context.Background(), in, "12345")
	require.Equal(t, replyLogged, reply)
	require.Len(t, recorder.calls, 1)
	require.Empty(t, recorder.calls[0].orgs)
}

func TestAdvance_SearchWithoutLocationSkipsLookup(t *testing.T) {
	finder := found(delhiOrgs)
	d := newTestDialogue(t, finder, &stubRecorder{})
	for _, text := range []string{"I want to donate", "Where can I give food?", "find", "donate in   ", "Help me find a shelter"} {
		s, reply := d.Advance(context.Background(), domain.Session{}, text)
		require.Equal(t, replyClarifyLocation, reply, "text=%q", text)
		require.Equal(t, domain.StepIdle, s.Conversation.Step)
	}
	require.Empty(t, finder.locations)
}

func TestAdvance_HelpPrompt(t *testing.T) {
	finder := found(delhiOrgs)
	d := newTestDialogue(t, finder, &stubRecorder{})
	s, reply := d.Advance(context.Background(), domain.Session{Organizations: delhiOrgs}, "hello there in Delhi")
	require.Equal(t, replyHelp, reply)
	require.Equal(t, delhiOrgs, s.Organizations)
	require.Empty(t, finder.locations)
}

func TestAdvance_LookupMisses(t *testing.T) {
	cases := []struct {
		name   string
		result LookupResult
		want   string
	}{
		{name: "no results", result: LookupResult{Kind: LookupNoResults}, want: "I'm sorry, I couldn't find any organizations in Pune."},
		{name: "no coordinates", result: LookupResult{Kind: LookupNoCoordinates}, want: "Could not find coordinates for 'Pune'"},
		{name: "failed", result: LookupResult{Kind: LookupFailed, Err: errors.New("boom")}, want: "places service is unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDialogue(t, &stubFinder{result: tc.result}, &stubRecorder{})
			in := domain.Session{Organizations: delhiOrgs}
			s, reply := d.Advance(context.Background(), in, "Find food banks in Pune")
			require.Contains(t, reply, tc.want)
			require.Equal(t, domain.StepIdle, s.Conversation.Step)
			require.Equal(t, delhiOrgs, s.Organizations, "a miss keeps the previous cache")
		})
	}
}

func TestAdvance_NewSearchOverwritesCache(t *testing.T) {
	mumbai := []domain.Organization{{Name: "Mumbai Food Bank"}}
	d := newTestDialogue(t, found(mumbai), &stubRecorder{})
	s, _ := d.Advance(context.Background(), domain.Session{Organizations: delhiOrgs}, "donate in Mumbai")
	require.Equal(t, mumbai, s.Organizations)
}

func TestExtractLocation(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"Where can I donate in Delhi?", "Delhi", true},
		{"I want to donate IN new york city.", "new york city", true},
		{"find food banks in  San Francisco, CA ", "San Francisco, CA", true},
		{"donate again in Pune", "Pune", true},
		{"donate in", "", false},
		{"find something", "", false},
		{"donate in ?!", "", false},
	}
	for _, tc := range cases {
		got, ok := extractLocation(tc.text)
		require.Equal(t, tc.ok, ok, "text=%q", tc.text)
		require.Equal(t, tc.want, got, "text=%q", tc.text)
	}
}
