package gemini

// Wire schemas for the three Gemini exchanges. Each request is embedded in
// the prompt as JSON and the model is instructed to answer with JSON only,
// so both directions share these shapes.

// classificationRequest is the batch payload embedded in the classification
// prompt.
type classificationRequest struct {
	Texts []string `json:"texts"`
}

// quadrantTriple carries one quadrant key per matrix, as raw strings.
// Keys are validated against the matrix domains before they reach the
// pipeline.
type quadrantTriple struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
}

// classificationItem is one entry of the classification response. Task must
// echo one of the submitted batch texts verbatim.
type classificationItem struct {
	Task      string         `json:"task"`
	Quadrants quadrantTriple `json:"quadrants"`
}

// classificationResponse is the expected classification reply.
type classificationResponse struct {
	Classifications []classificationItem `json:"classifications"`
}

// decompositionRequest is the payload embedded in the decomposition prompt.
type decompositionRequest struct {
	Task string `json:"task"`
}

// decompositionResponse is the expected decomposition reply.
type decompositionResponse struct {
	Subtasks []string `json:"subtasks"`
}

// suggestionRequest is the payload embedded in the suggestion prompt.
type suggestionRequest struct {
	Texts []string `json:"texts"`
}

// suggestionResponse is the expected suggestion reply. Task must echo one of
// the submitted incomplete task texts verbatim.
type suggestionResponse struct {
	Task   string `json:"task"`
	Reason string `json:"reason"`
}
