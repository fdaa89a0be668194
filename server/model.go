package server

type ResponseModel struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type PipelineStatusModel struct {
	Key     string `json:"key"`
	ID      string `json:"id"`
	Source  string `json:"source,omitempty"`
	Sink    string `json:"sink,omitempty"`
	Query   string `json:"query"`
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}
