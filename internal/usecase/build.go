package usecase

// Build wires the lookup, request logger and dialogue into a ChatService.
func Build(places PlacesAPI, sheets WorksheetOpener, store SessionStore, maxMessageLen, maxTranscriptLen int) (*ChatService, error) {
	finder, err := NewOrganizationFinder(places)
	if err != nil {
		return nil, err
	}
	recorder, err := NewRequestLogger(sheets)
	if err != nil {
		return nil, err
	}
	dialogue, err := NewDialogue(finder, recorder)
	if err != nil {
		return nil, err
	}
	return NewChatService(dialogue, store, maxMessageLen, maxTranscriptLen)
}
