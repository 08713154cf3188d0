package models

// Requests for signal HTTP endpoints. Defined in domain for consistency and reuse.

type SymbolRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=12"`
}

type HistoryRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=12"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

type AnalyzeRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=25,dive,required,max=12"`
}

// AnalysisRequest is the message consumed from the requests topic.
type AnalysisRequest struct {
	Symbol string `json:"symbol"`
}
