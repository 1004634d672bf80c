package handlers

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"sim-exchange/src/engine"
	"sim-exchange/src/models"
)

type ExchangeHandler struct {
	Exchange         *engine.SimulatedExchange
	Sink             *engine.RecordingSink
	StartTime        time.Time
	CommandsReceived int64
}

func NewExchangeHandler(exchange *engine.SimulatedExchange, sink *engine.RecordingSink) *ExchangeHandler {
	return &ExchangeHandler{
		Exchange:  exchange,
		Sink:      sink,
		StartTime: time.Now(),
	}
}

func (h *ExchangeHandler) SubmitOrder(c *fiber.Ctx) error {
	var req models.SubmitOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Str("path", c.Path()).Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request: malformed JSON"})
	}

	order, err := buildOrder(&req)
	if err != nil {
		log.Warn().
			Err(err).
			Str("instrument", req.InstrumentID).
			Str("side", req.Side).
			Str("type", req.Type).
			Msg("Invalid order request")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	atomic.AddInt64(&h.CommandsReceived, 1)
	h.Exchange.Send(engine.SubmitOrder{Order: order})
	h.Exchange.Process(h.Exchange.TimeNs())

	log.Info().
		Str("client_order_id", order.ClientOrderID).
		Str("instrument", order.InstrumentID).
		Str("side", string(order.Side)).
		Str("type", string(order.Type)).
		Msg("Order submitted")

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitOrderResponse{
		ClientOrderID: order.ClientOrderID,
		Status:        "SUBMITTED",
	})
}

func (h *ExchangeHandler) SubmitOrderList(c *fiber.Ctx) error {
	var req models.SubmitOrderListRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request: malformed JSON"})
	}
	if len(req.Orders) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid order list: orders is empty"})
	}

	orders := make([]*engine.Order, 0, len(req.Orders))
	ids := make([]string, 0, len(req.Orders))
	for i := range req.Orders {
		order, err := buildOrder(&req.Orders[i])
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
		}
		orders = append(orders, order)
		ids = append(ids, order.ClientOrderID)
	}

	atomic.AddInt64(&h.CommandsReceived, 1)
	h.Exchange.Send(engine.SubmitOrderList{Orders: orders})
	h.Exchange.Process(h.Exchange.TimeNs())

	log.Info().Int("orders", len(orders)).Msg("Order list submitted")

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitOrderListResponse{
		ClientOrderIDs: ids,
		Status:         "SUBMITTED",
	})
}

func (h *ExchangeHandler) ModifyOrder(c *fiber.Ctx) error {
	clientOrderID := c.Params("id")

	var req models.ModifyOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request: malformed JSON"})
	}

	cmd := engine.ModifyOrder{ClientOrderID: clientOrderID}
	var err error
	if cmd.Quantity, err = optionalDecimal("quantity", req.Quantity); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}
	if cmd.Price, err = optionalDecimal("price", req.Price); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}
	if cmd.Trigger, err = optionalDecimal("trigger", req.Trigger); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}
	if cmd.Quantity == nil && cmd.Price == nil && cmd.Trigger == nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid modify: no fields to update"})
	}

	atomic.AddInt64(&h.CommandsReceived, 1)
	h.Exchange.Send(cmd)
	h.Exchange.Process(h.Exchange.TimeNs())

	log.Info().Str("client_order_id", clientOrderID).Msg("Modify submitted")

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitOrderResponse{
		ClientOrderID: clientOrderID,
		Status:        "PENDING_UPDATE",
	})
}

func (h *ExchangeHandler) CancelOrder(c *fiber.Ctx) error {
	clientOrderID := c.Params("id")

	atomic.AddInt64(&h.CommandsReceived, 1)
	h.Exchange.Send(engine.CancelOrder{ClientOrderID: clientOrderID})
	h.Exchange.Process(h.Exchange.TimeNs())

	log.Info().Str("client_order_id", clientOrderID).Msg("Cancel submitted")

	return c.Status(fiber.StatusAccepted).JSON(models.CancelOrderResponse{
		ClientOrderID: clientOrderID,
		Status:        "PENDING_CANCEL",
	})
}

func (h *ExchangeHandler) GetWorkingOrders(c *fiber.Ctx) error {
	instrumentID := c.Query("instrument")

	var out []models.WorkingOrderInfo
	appendOrders := func(id string) {
		for _, o := range h.Exchange.WorkingOrders(id) {
			info := models.WorkingOrderInfo{
				ClientOrderID: o.ClientOrderID,
				VenueOrderID:  o.VenueOrderID,
				InstrumentID:  o.InstrumentID,
				Side:          string(o.Side),
				Type:          string(o.Type),
				Price:         o.Price.String(),
				Quantity:      o.Quantity.String(),
				FilledQty:     o.FilledQuantity.String(),
				LeavesQty:     o.LeavesQuantity().String(),
				Status:        string(o.Status),
			}
			if o.Type == engine.TypeStopLimit {
				info.Trigger = o.Trigger.String()
			}
			out = append(out, info)
		}
	}

	if instrumentID != "" {
		appendOrders(instrumentID)
	} else {
		for _, instr := range h.Exchange.Instruments() {
			appendOrders(instr.ID)
		}
	}

	return c.Status(fiber.StatusOK).JSON(models.WorkingOrdersResponse{Orders: out})
}

func (h *ExchangeHandler) PostTick(c *fiber.Ctx) error {
	var req models.TickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request: malformed JSON"})
	}
	if req.InstrumentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid tick: instrument_id is required"})
	}

	tick := engine.QuoteTick{InstrumentID: req.InstrumentID, TsEventNs: req.TsEventNs}
	var err error
	if tick.BidPrice, err = requiredDecimal("bid_price", req.BidPrice); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}
	if tick.AskPrice, err = requiredDecimal("ask_price", req.AskPrice); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}
	if tick.BidSize, err = requiredDecimal("bid_size", req.BidSize); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}
	if tick.AskSize, err = requiredDecimal("ask_size", req.AskSize); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	h.Exchange.ProcessQuoteTick(tick)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ExchangeHandler) PostDepth(c *fiber.Ctx) error {
	var req models.DepthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request: malformed JSON"})
	}
	if req.InstrumentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid depth: instrument_id is required"})
	}

	depth := engine.MarketDepth{InstrumentID: req.InstrumentID, TsEventNs: req.TsEventNs}
	var err error
	if depth.Bids, err = parseLevels("bids", req.Bids); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}
	if depth.Asks, err = parseLevels("asks", req.Asks); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	h.Exchange.ProcessDepth(depth)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ExchangeHandler) GetOrderBook(c *fiber.Ctx) error {
	instrumentID := c.Params("instrument")

	depth := 10
	if depthStr := c.Query("depth"); depthStr != "" {
		if parsed, err := strconv.Atoi(depthStr); err == nil && parsed > 0 {
			depth = parsed
		}
	}

	bids, asks, ok := h.Exchange.BookSnapshot(instrumentID, depth)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "Instrument not found"})
	}

	return c.Status(fiber.StatusOK).JSON(models.OrderBookResponse{
		InstrumentID: instrumentID,
		TsEventNs:    h.Exchange.TimeNs(),
		Bids:         levelInfos(bids),
		Asks:         levelInfos(asks),
	})
}

func (h *ExchangeHandler) GetAccount(c *fiber.Ctx) error {
	state := h.Exchange.AccountSnapshot()

	balances := make([]models.BalanceInfo, 0, len(state.Balances))
	for _, b := range state.Balances {
		balances = append(balances, models.BalanceInfo{
			Currency: b.Currency,
			Total:    b.Total.String(),
			Locked:   b.Locked.String(),
			Free:     b.Free.String(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.AccountStateResponse{
		Venue:       state.Venue,
		AccountType: string(state.AccountType),
		Balances:    balances,
		TsEventNs:   state.TsEventNs,
	})
}

func (h *ExchangeHandler) GetEvents(c *fiber.Ctx) error {
	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	recorded := h.Sink.EventsFrom(offset)
	events := make([]models.EventInfo, 0, len(recorded))
	for _, ev := range recorded {
		events = append(events, models.EventInfo{
			Type:      ev.EventType(),
			TsEventNs: ev.Timestamp(),
			Detail:    ev,
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.EventsResponse{
		Offset: offset,
		Total:  h.Sink.Len(),
		Events: events,
	})
}

func (h *ExchangeHandler) HealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:           "healthy",
		UptimeSeconds:    int64(time.Since(h.StartTime).Seconds()),
		SimTimeNs:        h.Exchange.TimeNs(),
		Instruments:      len(h.Exchange.Instruments()),
		EventsEmitted:    h.Sink.Len(),
		CommandsReceived: atomic.LoadInt64(&h.CommandsReceived),
	})
}

func buildOrder(req *models.SubmitOrderRequest) (*engine.Order, error) {
	if req.InstrumentID == "" {
		return nil, &ValidationError{Message: "Invalid order: instrument_id is required"}
	}
	if req.Side != "BUY" && req.Side != "SELL" {
		return nil, &ValidationError{Message: "Invalid order: side must be BUY or SELL"}
	}

	var orderType engine.OrderType
	switch req.Type {
	case "MARKET":
		orderType = engine.TypeMarket
	case "LIMIT":
		orderType = engine.TypeLimit
	case "STOP_MARKET":
		orderType = engine.TypeStopMarket
	case "STOP_LIMIT":
		orderType = engine.TypeStopLimit
	default:
		return nil, &ValidationError{Message: "Invalid order: type must be MARKET, LIMIT, STOP_MARKET or STOP_LIMIT"}
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil || !quantity.IsPositive() {
		return nil, &ValidationError{Message: "Invalid order: quantity must be a positive decimal"}
	}

	price := decimal.Zero
	if orderType != engine.TypeMarket {
		price, err = decimal.NewFromString(req.Price)
		if err != nil || !price.IsPositive() {
			return nil, &ValidationError{Message: "Invalid order: price must be a positive decimal for " + req.Type + " orders"}
		}
	}

	trigger := decimal.Zero
	if orderType == engine.TypeStopLimit {
		trigger, err = decimal.NewFromString(req.Trigger)
		if err != nil || !trigger.IsPositive() {
			return nil, &ValidationError{Message: "Invalid order: trigger must be a positive decimal for STOP_LIMIT orders"}
		}
	}

	clientOrderID := req.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = uuid.New().String()
	}

	order := engine.NewOrder(clientOrderID, req.StrategyID, req.InstrumentID, engine.OrderSide(req.Side), orderType, price, quantity)
	order.Trigger = trigger
	order.PostOnly = req.PostOnly
	order.ReduceOnly = req.ReduceOnly
	order.ExpireTimeNs = req.ExpireTimeNs
	order.ParentOrderID = req.ParentOrderID
	order.ChildOrderIDs = req.ChildOrderIDs
	order.ContingencyIDs = req.ContingencyIDs

	switch req.Contingency {
	case "", "NONE":
		order.Contingency = engine.ContingencyNone
	case "OTO":
		order.Contingency = engine.ContingencyOTO
	case "OCO":
		order.Contingency = engine.ContingencyOCO
	default:
		return nil, &ValidationError{Message: "Invalid order: contingency must be NONE, OTO or OCO"}
	}

	return order, nil
}

func optionalDecimal(field, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid modify: " + field + " must be a decimal"}
	}
	return &value, nil
}

func requiredDecimal(field, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Message: "Invalid request: " + field + " must be a decimal"}
	}
	return value, nil
}

func parseLevels(field string, levels []models.DepthLevelInfo) ([]engine.BookLevel, error) {
	out := make([]engine.BookLevel, 0, len(levels))
	for _, l := range levels {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, &ValidationError{Message: "Invalid depth: " + field + " price must be a decimal"}
		}
		size, err := decimal.NewFromString(l.Size)
		if err != nil {
			return nil, &ValidationError{Message: "Invalid depth: " + field + " size must be a decimal"}
		}
		out = append(out, engine.BookLevel{Price: price, Size: size})
	}
	return out, nil
}

func levelInfos(levels []engine.BookLevel) []models.DepthLevelInfo {
	out := make([]models.DepthLevelInfo, 0, len(levels))
	for _, l := range levels {
		out = append(out, models.DepthLevelInfo{Price: l.Price.String(), Size: l.Size.String()})
	}
	return out
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
