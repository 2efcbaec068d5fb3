package dto

// PreloadRequest is the body of POST /preload.
type PreloadRequest struct {
	Symbols []string `json:"symbols" binding:"required,min=1"`
}

// PreloadFailure is one symbol that could not be ingested.
type PreloadFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// PreloadResponse summarizes a preload batch.
type PreloadResponse struct {
	Requested int              `json:"requested"`
	Ingested  []string         `json:"ingested"`
	Skipped   []string         `json:"skipped"`
	Failed    []PreloadFailure `json:"failed"`
}
