package usecase

import (
	"fmt"
	"strings"

	"plateful-agent/internal/domain"
)

const (
	replyAskName         = "Great! To proceed, please provide your name."
	replyAskPhone        = "Thank you. Now, what is your phone number?"
	replyDeclined        = "Okay, I won't log this request. Is there anything else I can help you with?"
	replyClarifyLocation = "I can help with that! Please tell me the city you're in, for example: 'I want to donate in Delhi'."
	replyHelp            = "I can help you find food donation centers. Please tell me your city, like 'Where can I donate in Delhi?'"
	replyLogged          = "✅ Request logged successfully!"
	replyLogFailed       = "❌ Error: Could not write to sheet."
	replyConfirmPrompt   = "**Would you like me to log this request for you? (yes/no)**"
)

func formatFoundReply(location string, orgs []domain.Organization) string {
	return strings.Join([]string{
		fmt.Sprintf("I found these organizations in %s:", location),
		"",
		formatOrganizations(orgs),
		"",
		replyConfirmPrompt,
	}, "\n")
}

func formatOrganizations(orgs []domain.Organization) string {
	var b strings.Builder
	for i, org := range orgs {
		org = org.Normalized()
		fmt.Fprintf(&b, "**%d. %s**\n\n", i+1, org.Name)
		fmt.Fprintf(&b, "   - **Address**: %s\n\n", org.Address)
		fmt.Fprintf(&b, "   - **Phone**: %s\n\n", org.Phone)
		fmt.Fprintf(&b, "   - **Website**: %s\n\n", org.Website)
	}
	return strings.TrimRight(b.String(), "\n")
}

func lookupFailureReply(result LookupResult) string {
	switch result.Kind {
	case LookupNoCoordinates:
		return fmt.Sprintf("I'm sorry, I couldn't find any organizations. Error: Could not find coordinates for '%s'.", result.Location)
	case LookupNoResults:
		return fmt.Sprintf("I'm sorry, I couldn't find any organizations in %s.", result.Location)
	default:
		return "I'm sorry, I couldn't find any organizations. Error: the places service is unavailable right now."
	}
}
