package transport

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Message(msg string) Envelope {
	return Envelope{Success: true, Message: msg}
}

func Paged(data any, p Pagination) Envelope {
	return Envelope{Success: true, Data: data, Pagination: &p}
}

func Fail(msg, detail string) Envelope {
	return Envelope{Success: false, Message: msg, Error: detail}
}
