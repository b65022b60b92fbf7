package ocr

// Response shapes of a Typhoon-style OCR API. Only the fields the engine
// reads are kept.

type ocrResponse struct {
	TotalPages      int         `json:"total_pages"`
	SuccessfulPages int         `json:"successful_pages"`
	FailedPages     int         `json:"failed_pages"`
	Results         []ocrResult `json:"results"`
	ProcessingTime  float64     `json:"processing_time"`
}

type ocrResult struct {
	Filename string      `json:"filename"`
	Success  bool        `json:"success"`
	Message  *ocrMessage `json:"message"`
	Error    any         `json:"error"`
}

type ocrMessage struct {
	Model   string      `json:"model"`
	Choices []ocrChoice `json:"choices"`
}

type ocrChoice struct {
	Index   int            `json:"index"`
	Message ocrChatMessage `json:"message"`
}

type ocrChatMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// ocrParams is sent as the "params" form field.
type ocrParams struct {
	Model       string  `json:"model"`
	TaskType    string  `json:"task_type"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}
