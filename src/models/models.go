package models

type SubmitOrderRequest struct {
	ClientOrderID  string   `json:"client_order_id,omitempty"` // generated when empty
	StrategyID     string   `json:"strategy_id,omitempty"`
	InstrumentID   string   `json:"instrument_id"`
	Side           string   `json:"side"`
	Type           string   `json:"type"`
	Price          string   `json:"price,omitempty"`   // limit px, or stop px for STOP_MARKET
	Trigger        string   `json:"trigger,omitempty"` // STOP_LIMIT trigger px
	Quantity       string   `json:"quantity"`
	PostOnly       bool     `json:"post_only,omitempty"`
	ReduceOnly     bool     `json:"reduce_only,omitempty"`
	ExpireTimeNs   int64    `json:"expire_time_ns,omitempty"`
	Contingency    string   `json:"contingency,omitempty"` // OTO or OCO
	ParentOrderID  string   `json:"parent_order_id,omitempty"`
	ChildOrderIDs  []string `json:"child_order_ids,omitempty"`
	ContingencyIDs []string `json:"contingency_ids,omitempty"`
}

type SubmitOrderListRequest struct {
	Orders []SubmitOrderRequest `json:"orders"`
}

type SubmitOrderResponse struct {
	ClientOrderID string `json:"client_order_id"`
	Status        string `json:"status"`
}

type SubmitOrderListResponse struct {
	ClientOrderIDs []string `json:"client_order_ids"`
	Status         string   `json:"status"`
}

type ModifyOrderRequest struct {
	Quantity string `json:"quantity,omitempty"`
	Price    string `json:"price,omitempty"`
	Trigger  string `json:"trigger,omitempty"`
}

type CancelOrderResponse struct {
	ClientOrderID string `json:"client_order_id"`
	Status        string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type TickRequest struct {
	InstrumentID string `json:"instrument_id"`
	BidPrice     string `json:"bid_price"`
	AskPrice     string `json:"ask_price"`
	BidSize      string `json:"bid_size"`
	AskSize      string `json:"ask_size"`
	TsEventNs    int64  `json:"ts_event_ns"`
}

type DepthLevelInfo struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type DepthRequest struct {
	InstrumentID string           `json:"instrument_id"`
	Bids         []DepthLevelInfo `json:"bids"`
	Asks         []DepthLevelInfo `json:"asks"`
	TsEventNs    int64            `json:"ts_event_ns"`
}

type OrderBookResponse struct {
	InstrumentID string           `json:"instrument_id"`
	TsEventNs    int64            `json:"ts_event_ns"`
	Bids         []DepthLevelInfo `json:"bids"` // sorted descending (highest first)
	Asks         []DepthLevelInfo `json:"asks"` // sorted ascending (lowest first)
}

type WorkingOrderInfo struct {
	ClientOrderID string `json:"client_order_id"`
	VenueOrderID  string `json:"venue_order_id"`
	InstrumentID  string `json:"instrument_id"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	Trigger       string `json:"trigger,omitempty"`
	Quantity      string `json:"quantity"`
	FilledQty     string `json:"filled_qty"`
	LeavesQty     string `json:"leaves_qty"`
	Status        string `json:"status"`
}

type WorkingOrdersResponse struct {
	Orders []WorkingOrderInfo `json:"orders"`
}

type BalanceInfo struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
	Locked   string `json:"locked"`
	Free     string `json:"free"`
}

type AccountStateResponse struct {
	Venue       string        `json:"venue"`
	AccountType string        `json:"account_type"`
	Balances    []BalanceInfo `json:"balances"`
	TsEventNs   int64         `json:"ts_event_ns"`
}

type EventInfo struct {
	Type      string `json:"type"`
	TsEventNs int64  `json:"ts_event_ns"`
	Detail    any    `json:"detail"`
}

type EventsResponse struct {
	Offset int         `json:"offset"`
	Total  int         `json:"total"`
	Events []EventInfo `json:"events"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	SimTimeNs        int64  `json:"sim_time_ns"`
	Instruments      int    `json:"instruments"`
	EventsEmitted    int    `json:"events_emitted"`
	CommandsReceived int64  `json:"commands_received"`
}
