package dto

// UTM carries campaign attribution captured by the landing pages.
type UTM struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Term     string `json:"term"`
	Content  string `json:"content"`
}

// LeadResponse is returned to the form on success, including the faked honeypot success.
type LeadResponse struct {
	OK        bool `json:"ok"`
	LeadScore int  `json:"leadScore"`
}

// ErrorResponse is the body of every non-200 answer of the lead endpoint.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}
