package api

// CompileRequest is the body of POST /api/v1/compile and the first message
// sent over GET /api/v1/compile/ws.
type CompileRequest struct {
	Source string `json:"source"`
}

// DiagnosticPayload reframes a sema.Diagnostic for JSON consumers.
type DiagnosticPayload struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Warning    bool   `json:"warning"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CompileResponse is the body of a successful POST /api/v1/compile.
type CompileResponse struct {
	Diagnostics []DiagnosticPayload `json:"diagnostics"`
	IR          string              `json:"ir,omitempty"`
	Asm         string              `json:"asm,omitempty"`
	ExitCode    int                 `json:"exitCode"`
}

// ErrorResponse is returned for malformed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// StageEvent is one frame of the /api/v1/compile/ws stream: at most one
// field besides Stage is populated, matching which pipeline stage produced it.
type StageEvent struct {
	Stage       string              `json:"stage"`
	Diagnostics []DiagnosticPayload `json:"diagnostics,omitempty"`
	Quads       []string            `json:"quads,omitempty"`
	Text        string              `json:"text,omitempty"`
	ExitCode    *int                `json:"exitCode,omitempty"`
	Error       string              `json:"error,omitempty"`
}
