package dto

// JudgeHealthResponse reports reachability of the reasoning endpoint.
type JudgeHealthResponse struct {
	OK   bool                   `json:"ok"`
	Info map[string]interface{} `json:"info"`
}
