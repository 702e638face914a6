package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/maib-ecomm/maib-gateway/internal/cart"
	"github.com/maib-ecomm/maib-gateway/internal/clock"
	"github.com/maib-ecomm/maib-gateway/internal/config"
	"github.com/maib-ecomm/maib-gateway/internal/maib"
	"github.com/maib-ecomm/maib-gateway/internal/nonce"
	orderdomain "github.com/maib-ecomm/maib-gateway/internal/order/domain"
	"github.com/maib-ecomm/maib-gateway/internal/payment/domain"
	"github.com/maib-ecomm/maib-gateway/internal/signature"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const descriptionLimit = 124

type Params struct {
	fx.In

	DB      *gorm.DB
	Cfg     config.Config
	Orders  orderdomain.Repository
	Gateway domain.Gateway
	Tokens  domain.TokenSource
	Cart    cart.Store
	Clock   clock.Clock
	Node    *snowflake.Node
	Metrics *Metrics
	Log     *zap.Logger
}

type Service struct {
	db      *gorm.DB
	cfg     config.Config
	orders  orderdomain.Repository
	gateway domain.Gateway
	tokens  domain.TokenSource
	cart    cart.Store
	clock   clock.Clock
	node    *snowflake.Node
	metrics *Metrics
	log     *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		cfg:     p.Cfg,
		orders:  p.Orders,
		gateway: p.Gateway,
		tokens:  p.Tokens,
		cart:    p.Cart,
		clock:   p.Clock,
		node:    p.Node,
		metrics: p.Metrics,
		log:     p.Log.Named("payment.service"),
	}
}

func (s *Service) Initiate(ctx context.Context, orderID snowflake.ID, clientIP string) (*domain.InitiateResult, error) {
	if !s.cfg.Maib.HasCredentials() {
		s.log.Error("payment initiation refused, credentials missing", zap.Int64("orderId", orderID.Int64()))
		return nil, domain.ErrMissingCredentials
	}

	order, err := s.orders.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Transitionable() {
		s.log.Warn("payment initiation refused, order not awaiting payment",
			zap.Int64("orderId", orderID.Int64()),
			zap.String("status", string(order.Status)))
		return nil, domain.ErrOrderNotPayable
	}
	if !supportedCurrency(order.Currency) {
		s.log.Error("payment initiation refused",
			zap.Int64("orderId", orderID.Int64()),
			zap.String("currency", order.Currency))
		return nil, domain.ErrUnsupportedCurrency
	}

	req, err := s.buildPayRequest(order, clientIP)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.log.Error("payment initiation: token fetch failed", zap.Error(err))
		return nil, domain.ErrInitiationFailed
	}

	var result *maib.PayResult
	switch orderdomain.TransactionType(s.cfg.Maib.TransactionType) {
	case orderdomain.TransactionTypeDirect:
		result, err = s.gateway.Pay(ctx, req, token)
	case orderdomain.TransactionTypeTwoStep:
		result, err = s.gateway.Hold(ctx, req, token)
	default:
		s.log.Error("unknown transaction type configured", zap.String("type", s.cfg.Maib.TransactionType))
		return nil, domain.ErrUnknownTransactionType
	}
	if err != nil {
		// Full detail stays in the operator log; the shopper gets the
		// generic message.
		s.log.Error("payment initiation failed",
			zap.Int64("orderId", orderID.Int64()),
			zap.Error(err))
		return nil, domain.ErrInitiationFailed
	}
	if result.PayID == "" || result.PayURL == "" {
		s.log.Error("payment initiation returned incomplete result",
			zap.Int64("orderId", orderID.Int64()),
			zap.String("payId", result.PayID))
		return nil, domain.ErrInitiationFailed
	}

	txType := orderdomain.TransactionType(s.cfg.Maib.TransactionType)
	if err := s.orders.SetTransaction(ctx, s.db, orderID, result.PayID, txType); err != nil {
		return nil, err
	}
	s.note(ctx, orderID, fmt.Sprintf("Payment created (payId %s, %s).", result.PayID, txType))

	s.log.Info("payment initiated",
		zap.Int64("orderId", orderID.Int64()),
		zap.String("payId", result.PayID),
		zap.String("type", string(txType)))
	return &domain.InitiateResult{PayID: result.PayID, RedirectURL: result.PayURL}, nil
}

func (s *Service) HandleCallback(ctx context.Context, body []byte) domain.Ack {
	result, sig, ok := signature.DecodeBody(body)
	if !ok {
		s.metrics.Callbacks.WithLabelValues("malformed").Inc()
		s.log.Warn("malformed callback body", zap.Int("size", len(body)))
		return domain.AckError
	}

	verified := signature.Verify(result, s.cfg.Maib.SignatureKey, sig)
	payID := readString(result, "payId")
	status := readString(result, "status")
	orderRef := readString(result, "orderId")

	event := &orderdomain.PaymentEvent{
		ID:          s.node.Generate(),
		PayID:       payID,
		Status:      status,
		SignatureOK: verified,
		Payload:     datatypes.JSON(body),
		ReceivedAt:  s.clock.Now(ctx),
	}
	if id, err := snowflake.ParseString(orderRef); err == nil && orderRef != "" {
		event.OrderID = &id
	}
	if err := s.orders.RecordEvent(ctx, s.db, event); err != nil {
		s.log.Error("record payment event", zap.Error(err))
	}

	if !verified {
		s.metrics.Callbacks.WithLabelValues("rejected").Inc()
		s.log.Warn("callback signature mismatch", zap.String("payId", payID))
		return domain.AckError
	}
	s.metrics.Callbacks.WithLabelValues("verified").Inc()

	// The payload is authentic from here on. Processing failures are an
	// operator concern; the processor still gets its OK so it stops retrying
	// a notification we have already recorded.
	orderID, err := snowflake.ParseString(orderRef)
	if err != nil || orderRef == "" {
		s.log.Error("callback carries no usable order reference", zap.String("orderId", orderRef))
		return domain.AckOK
	}
	order, err := s.orders.FindByID(ctx, s.db, orderID)
	if err != nil {
		s.log.Error("callback order lookup failed",
			zap.Int64("orderId", orderID.Int64()),
			zap.Error(err))
		return domain.AckOK
	}

	if !order.Status.Transitionable() {
		s.metrics.Transitions.WithLabelValues("duplicate").Inc()
		s.note(ctx, order.ID, fmt.Sprintf(
			"Duplicate payment notification ignored (payId %s, status %s).", payID, status))
		s.markProcessed(ctx, event.ID)
		return domain.AckOK
	}

	if status == "OK" {
		switch order.TransactionType {
		case orderdomain.TransactionTypeDirect:
			s.completePayment(ctx, order, payID)
		case orderdomain.TransactionTypeTwoStep:
			s.holdPayment(ctx, order, payID)
		default:
			s.log.Error("order carries unknown transaction type",
				zap.Int64("orderId", order.ID.Int64()),
				zap.String("type", string(order.TransactionType)))
			s.note(ctx, order.ID, fmt.Sprintf(
				"Payment notification for payId %s not applied: unknown transaction type %q.",
				payID, order.TransactionType))
			return domain.AckOK
		}
	} else {
		s.failPayment(ctx, order, payID, readString(result, "statusMessage"))
	}

	s.note(ctx, order.ID, transactionNote(result))
	s.markProcessed(ctx, event.ID)
	return domain.AckOK
}

func (s *Service) HandleReturn(ctx context.Context, orderRef, payID, outcome string) domain.Redirect {
	log := s.log.With(
		zap.String("orderId", orderRef),
		zap.String("payId", payID),
		zap.String("outcome", outcome))

	orderID, err := snowflake.ParseString(orderRef)
	if err != nil || orderRef == "" || payID == "" {
		log.Warn("redirect-back with unusable parameters")
		return domain.Redirect{URL: s.storeURL(s.cfg.Store.CartURL), Notice: "Order could not be found."}
	}
	order, err := s.orders.FindByID(ctx, s.db, orderID)
	if err != nil {
		log.Warn("redirect-back for unknown order", zap.Error(err))
		return domain.Redirect{URL: s.storeURL(s.cfg.Store.CartURL), Notice: "Order could not be found."}
	}

	// The nonce only proves the link belongs to this order. The payId is
	// still shopper-controlled, so the inquiry runs against the payment
	// bound to the order at initiation, never the query value.
	if order.TransactionID == "" || payID != order.TransactionID {
		log.Warn("redirect-back payId does not match the order's payment",
			zap.String("transactionId", order.TransactionID))
		return domain.Redirect{URL: s.storeURL(s.cfg.Store.CartURL), Notice: "Order could not be found."}
	}

	// The outcome in the URL is shopper-controlled; ask the processor what
	// actually happened.
	token, err := s.tokens.Token(ctx)
	if err != nil {
		log.Error("redirect-back: token fetch failed", zap.Error(err))
		return domain.Redirect{
			URL:    s.storeURL(s.cfg.Store.CheckoutURL),
			Notice: "Payment could not be verified, please try again.",
		}
	}
	info, err := s.gateway.PayInfo(ctx, order.TransactionID, token)
	if err != nil {
		log.Error("redirect-back: pay-info failed", zap.Error(err))
		return domain.Redirect{
			URL:    s.storeURL(s.cfg.Store.CheckoutURL),
			Notice: "Payment could not be verified, please try again.",
		}
	}
	if info.OrderID != "" && info.OrderID != order.ID.String() {
		log.Error("redirect-back: pay-info reports a different order",
			zap.String("reportedOrderId", info.OrderID))
		return domain.Redirect{
			URL:    s.storeURL(s.cfg.Store.CheckoutURL),
			Notice: "Payment could not be verified, please try again.",
		}
	}

	if info.Status == "OK" {
		if order.Status.Transitionable() {
			switch order.TransactionType {
			case orderdomain.TransactionTypeDirect:
				s.completePayment(ctx, order, order.TransactionID)
			case orderdomain.TransactionTypeTwoStep:
				s.holdPayment(ctx, order, order.TransactionID)
			default:
				s.log.Error("order carries unknown transaction type",
					zap.Int64("orderId", order.ID.Int64()),
					zap.String("type", string(order.TransactionType)))
				s.note(ctx, order.ID, fmt.Sprintf(
					"Payment confirmation for payId %s not applied: unknown transaction type %q.",
					order.TransactionID, order.TransactionType))
			}
		}
		return domain.Redirect{URL: s.receiptURL(order.ID)}
	}

	if order.Status.Transitionable() {
		s.failPayment(ctx, order, payID, info.StatusMessage)
	}
	notice := "Payment failed, please try again."
	if info.StatusMessage != "" {
		notice = fmt.Sprintf("Payment failed: %s", info.StatusMessage)
	}
	return domain.Redirect{URL: s.storeURL(s.cfg.Store.CheckoutURL), Notice: notice}
}

func (s *Service) Refund(ctx context.Context, orderID snowflake.ID, amount float64) error {
	order, err := s.orders.FindByID(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	if order.TransactionID == "" {
		return domain.ErrMissingTransactionID
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("refund order %s: %w", orderID, err)
	}
	result, err := s.gateway.Refund(ctx, maib.RefundRequest{
		PayID:        order.TransactionID,
		RefundAmount: amount,
	}, token)
	if err != nil {
		s.log.Error("refund failed",
			zap.Int64("orderId", orderID.Int64()),
			zap.String("payId", order.TransactionID),
			zap.Error(err))
		return err
	}

	if result.Status == "REVERSED" {
		return domain.ErrAlreadyRefunded
	}
	if result.Status != "OK" {
		s.note(ctx, order.ID, fmt.Sprintf("Refund for payId %s declined: %s.", order.TransactionID, result.StatusMessage))
		return fmt.Errorf("refund order %s: processor status %s", orderID, result.Status)
	}

	s.note(ctx, order.ID, fmt.Sprintf("Refunded %.2f %s (payId %s).", amount, order.Currency, order.TransactionID))
	if amount >= order.Amount {
		if err := s.orders.UpdateStatus(ctx, s.db, order.ID, orderdomain.StatusRefunded); err != nil {
			return err
		}
		s.metrics.Transitions.WithLabelValues("refunded").Inc()
	}
	s.log.Info("refund applied",
		zap.Int64("orderId", orderID.Int64()),
		zap.String("payId", order.TransactionID),
		zap.Float64("amount", amount))
	return nil
}

func (s *Service) CompleteTwoStep(ctx context.Context, orderID snowflake.ID) error {
	order, err := s.orders.FindByID(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	if order.TransactionID == "" {
		return domain.ErrMissingTransactionID
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("complete order %s: %w", orderID, err)
	}
	result, err := s.gateway.Complete(ctx, maib.CompleteRequest{PayID: order.TransactionID}, token)
	if err != nil {
		s.log.Error("two-step completion failed",
			zap.Int64("orderId", orderID.Int64()),
			zap.String("payId", order.TransactionID),
			zap.Error(err))
		return err
	}
	if result.Status != "OK" {
		s.note(ctx, order.ID, fmt.Sprintf(
			"Two-step completion for payId %s declined: %s.", order.TransactionID, result.StatusMessage))
		return fmt.Errorf("%w: processor status %s", domain.ErrCompleteFailed, result.Status)
	}

	status := s.statusFor(s.cfg.Maib.CompletedOrderStatus, orderdomain.StatusProcessing)
	if err := s.orders.UpdateStatus(ctx, s.db, order.ID, status); err != nil {
		return err
	}
	s.note(ctx, order.ID, fmt.Sprintf("Two-step payment (payId %s) completed.", order.TransactionID))
	s.metrics.Transitions.WithLabelValues("completed").Inc()
	return nil
}

// completePayment records a successful direct payment exactly once. The
// conditional paid_at update in the order store serializes concurrent
// deliveries; losers of the race return without side effects.
func (s *Service) completePayment(ctx context.Context, order *orderdomain.Order, payID string) {
	done, err := s.orders.MarkPaid(ctx, s.db, order.ID, s.clock.Now(ctx))
	if err != nil {
		s.log.Error("mark paid failed", zap.Int64("orderId", order.ID.Int64()), zap.Error(err))
		return
	}
	if !done {
		s.log.Debug("payment already recorded", zap.Int64("orderId", order.ID.Int64()))
		return
	}

	if err := s.cart.Clear(ctx, order.CustomerID); err != nil {
		s.log.Warn("cart clear failed", zap.Int64("customerId", order.CustomerID.Int64()), zap.Error(err))
	}
	status := s.statusFor(s.cfg.Maib.CompletedOrderStatus, orderdomain.StatusProcessing)
	if err := s.orders.UpdateStatus(ctx, s.db, order.ID, status); err != nil {
		s.log.Error("status update failed", zap.Int64("orderId", order.ID.Int64()), zap.Error(err))
		return
	}
	s.note(ctx, order.ID, fmt.Sprintf("Payment (payId %s) successful.", payID))
	s.metrics.Transitions.WithLabelValues("completed").Inc()
	s.log.Info("payment completed",
		zap.Int64("orderId", order.ID.Int64()),
		zap.String("payId", payID),
		zap.String("status", string(status)))
}

// holdPayment records an authorized two-step payment awaiting capture. Shares
// the paid_at guard with completePayment so a hold cannot apply twice either.
func (s *Service) holdPayment(ctx context.Context, order *orderdomain.Order, payID string) {
	done, err := s.orders.MarkPaid(ctx, s.db, order.ID, s.clock.Now(ctx))
	if err != nil {
		s.log.Error("mark paid failed", zap.Int64("orderId", order.ID.Int64()), zap.Error(err))
		return
	}
	if !done {
		s.log.Debug("payment already recorded", zap.Int64("orderId", order.ID.Int64()))
		return
	}

	if err := s.cart.Clear(ctx, order.CustomerID); err != nil {
		s.log.Warn("cart clear failed", zap.Int64("customerId", order.CustomerID.Int64()), zap.Error(err))
	}
	status := s.statusFor(s.cfg.Maib.HoldOrderStatus, orderdomain.StatusOnHold)
	if err := s.orders.UpdateStatus(ctx, s.db, order.ID, status); err != nil {
		s.log.Error("status update failed", zap.Int64("orderId", order.ID.Int64()), zap.Error(err))
		return
	}
	s.note(ctx, order.ID, fmt.Sprintf("Payment (payId %s) authorized, awaiting capture.", payID))
	s.metrics.Transitions.WithLabelValues("on-hold").Inc()
	s.log.Info("payment held",
		zap.Int64("orderId", order.ID.Int64()),
		zap.String("payId", payID),
		zap.String("status", string(status)))
}

func (s *Service) failPayment(ctx context.Context, order *orderdomain.Order, payID, reason string) {
	status := s.statusFor(s.cfg.Maib.FailedOrderStatus, orderdomain.StatusFailed)
	if order.Status == status {
		// Repeat failure notifications only annotate.
		s.note(ctx, order.ID, fmt.Sprintf("Repeated failure notification (payId %s).", payID))
		return
	}
	if err := s.orders.UpdateStatus(ctx, s.db, order.ID, status); err != nil {
		s.log.Error("status update failed", zap.Int64("orderId", order.ID.Int64()), zap.Error(err))
		return
	}
	note := fmt.Sprintf("Payment (payId %s) failed.", payID)
	if reason != "" {
		note = fmt.Sprintf("Payment (payId %s) failed: %s.", payID, reason)
	}
	s.note(ctx, order.ID, note)
	s.metrics.Transitions.WithLabelValues("failed").Inc()
	s.log.Info("payment failed",
		zap.Int64("orderId", order.ID.Int64()),
		zap.String("payId", payID),
		zap.String("reason", reason))
}

func (s *Service) buildPayRequest(order *orderdomain.Order, clientIP string) (maib.PayRequest, error) {
	items, err := decodeItems(order)
	if err != nil {
		return maib.PayRequest{}, err
	}

	payItems := make([]maib.Item, 0, len(items))
	for _, it := range items {
		payItems = append(payItems, maib.Item{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}

	n := nonce.New(s.cfg.Maib.SignatureKey, "return:"+order.ID.String())
	base := strings.TrimRight(s.cfg.Store.BaseURL, "/")

	return maib.PayRequest{
		Amount:      order.Amount,
		Currency:    order.Currency,
		ClientIP:    clientIP,
		Language:    s.cfg.Maib.Language,
		Description: renderDescription(s.cfg.Maib.OrderTemplate, order.ID.String(), items),
		ClientName:  order.ClientName,
		Email:       order.Email,
		Phone:       order.Phone,
		OrderID:     order.ID.String(),
		Delivery:    order.ShippingTotal,
		Items:       payItems,
		CallbackURL: base + "/maib/callback",
		OkURL:       base + "/maib/return/ok?nonce=" + n,
		FailURL:     base + "/maib/return/fail?nonce=" + n,
	}, nil
}

func (s *Service) note(ctx context.Context, orderID snowflake.ID, text string) {
	err := s.orders.AddNote(ctx, s.db, &orderdomain.OrderNote{
		ID:        s.node.Generate(),
		OrderID:   orderID,
		Note:      text,
		CreatedAt: s.clock.Now(ctx),
	})
	if err != nil {
		s.log.Error("add order note", zap.Int64("orderId", orderID.Int64()), zap.Error(err))
	}
}

func (s *Service) markProcessed(ctx context.Context, eventID snowflake.ID) {
	if err := s.orders.MarkEventProcessed(ctx, s.db, eventID, s.clock.Now(ctx)); err != nil {
		s.log.Error("mark event processed", zap.Error(err))
	}
}

// statusFor resolves a configured status mapping; "default" (or empty) keeps
// the built-in status for the outcome.
func (s *Service) statusFor(mapping string, def orderdomain.Status) orderdomain.Status {
	if mapping == "" || mapping == "default" {
		return def
	}
	return orderdomain.Status(mapping)
}

func (s *Service) storeURL(path string) string {
	return strings.TrimRight(s.cfg.Store.BaseURL, "/") + path
}

func (s *Service) receiptURL(orderID snowflake.ID) string {
	return fmt.Sprintf("%s?order_id=%s", s.storeURL(s.cfg.Store.ReceiptURL), orderID)
}

func supportedCurrency(currency string) bool {
	switch currency {
	case "MDL", "EUR", "USD":
		return true
	}
	return false
}

func decodeItems(order *orderdomain.Order) ([]orderdomain.Item, error) {
	if len(order.Items) == 0 {
		return nil, nil
	}
	var items []orderdomain.Item
	if err := json.Unmarshal(order.Items, &items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	return items, nil
}

// renderDescription fills the configured order template and enforces the
// processor's 124-character description limit.
func renderDescription(template, orderID string, items []orderdomain.Item) string {
	out := strings.ReplaceAll(template, "%order_id%", orderID)
	out = strings.ReplaceAll(out, "%items_summary%", itemsSummary(items))
	if len(out) > descriptionLimit {
		cut := descriptionLimit
		// Never split a multi-byte rune at the limit.
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut]
	}
	return out
}

func itemsSummary(items []orderdomain.Item) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return strings.Join(names, ", ")
}

// transactionNote renders the authenticated callback payload for the order's
// audit trail, mirroring the fields the processor reports.
func transactionNote(result map[string]any) string {
	var b strings.Builder
	b.WriteString("maib transaction details:")
	for _, key := range []string{"payId", "status", "statusCode", "statusMessage", "amount", "currency", "rrn", "approval", "cardNumber"} {
		if v := readString(result, key); v != "" {
			fmt.Fprintf(&b, " %s=%s", key, v)
		}
	}
	return b.String()
}

func readString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	}
}
