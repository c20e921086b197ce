package domain

// InlineImage is an image ready for transmission to a generative model.
type InlineImage struct {
	// MIMEType is image/jpeg or image/png.
	MIMEType string

	// Data is the standard base64 encoding of the image bytes.
	Data string
}

// DataURL renders the image as a data: URL.
func (i InlineImage) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Data
}

// PromptPayload is the assembled input to a generative model.
type PromptPayload struct {
	// Images come first, in retrieval rank order.
	Images []InlineImage

	// Text holds the instruction preamble, the question and the rendered context.
	Text string

	// History is prior conversation, passed through untouched.
	History []ConversationTurn
}
