package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"plateful-agent/internal/domain"
)

// Finder looks up organizations near a free-text location.
type Finder interface {
	Find(ctx context.Context, location string) LookupResult
}

// Recorder logs a donor's request against a list of organizations.
type Recorder interface {
	Record(ctx context.Context, donorName, donorPhone string, orgs []domain.Organization) error
}

var (
	searchTriggers  = []string{"find", "donate", "where can"}
	locationPattern = regexp.MustCompile(`(?i)\bin\s+(.+)`)
)

// Dialogue advances a session by one chat turn.
type Dialogue struct {
	finder   Finder
	recorder Recorder
}

func NewDialogue(finder Finder, recorder Recorder) (*Dialogue, error) {
	if finder == nil {
		return nil, errors.New("usecase: finder must not be nil")
	}
	if recorder == nil {
		return nil, errors.New("usecase: recorder must not be nil")
	}
	return &Dialogue{finder: finder, recorder: recorder}, nil
}

// Advance returns the next session state and the reply for text. The input
// session is left untouched.
func (d *Dialogue) Advance(ctx context.Context, session domain.Session, text string) (domain.Session, string) {
	next := session
	conv := session.Conversation
	normalized := strings.ToLower(strings.TrimSpace(text))

	switch conv.Step {
	case domain.StepAwaitingName:
		next.Conversation = domain.Conversation{Step: domain.StepAwaitingPhone, DonorName: text}
		return next, replyAskPhone

	case domain.StepAwaitingPhone:
		conv.DonorPhone = text
		next.Conversation = domain.Conversation{}
		if err := d.recorder.Record(ctx, conv.DonorName, conv.DonorPhone, session.Organizations); err != nil {
			slog.Error("request log failed", "session_id", session.ID, "err", err)
			return next, replyLogFailed
		}
		slog.Info("request logged", "session_id", session.ID, "organizations", len(session.Organizations))
		return next, replyLogged

	case domain.StepAwaitingConfirmation:
		if normalized == "yes" {
			next.Conversation = domain.Conversation{Step: domain.StepAwaitingName}
			return next, replyAskName
		}
		next.Conversation = domain.Conversation{}
		return next, replyDeclined
	}

	if !isSearchIntent(normalized) {
		return next, replyHelp
	}

	location, ok := extractLocation(text)
	if !ok {
		return next, replyClarifyLocation
	}

	result := d.finder.Find(ctx, location)
	if result.Kind != LookupFound {
		return next, lookupFailureReply(result)
	}

	next.Organizations = result.Organizations
	next.Conversation = domain.Conversation{Step: domain.StepAwaitingConfirmation}
	return next, formatFoundReply(location, result.Organizations)
}

func isSearchIntent(normalized string) bool {
	for _, trigger := range searchTriggers {
		if strings.Contains(normalized, trigger) {
			return true
		}
	}
	return false
}

// extractLocation returns the text following the word "in".
func extractLocation(text string) (string, bool) {
	m := locationPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	location := strings.TrimRight(strings.TrimSpace(m[1]), "?!. ")
	if location == "" {
		return "", false
	}
	return location, true
}
