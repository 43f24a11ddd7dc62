package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookdesk/models"
	"bookdesk/services/booking"
	"bookdesk/services/outbound"
	"bookdesk/services/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type stubLifecycle struct {
	transitionErr error
	transitions   []string
}

func (s *stubLifecycle) Create(_ context.Context, req booking.CreateRequest) (*models.Booking, error) {
	return &models.Booking{ID: "b1", InstructorID: req.InstructorID, State: models.InitialBookingState}, nil
}

func (s *stubLifecycle) Get(_ context.Context, id string) (*models.Booking, error) {
	if id != "b1" {
		return nil, booking.ErrBookingNotFound
	}
	return &models.Booking{ID: id, State: models.BookingDraft}, nil
}

func (s *stubLifecycle) Transition(_ context.Context, id string, next models.BookingState, actor models.Actor) (*models.Booking, error) {
	s.transitions = append(s.transitions, fmt.Sprintf("%s:%s:%s", id, next, actor))
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	return &models.Booking{ID: id, State: next}, nil
}

func (s *stubLifecycle) History(_ context.Context, id string) (*booking.History, error) {
	return &booking.History{Booking: &models.Booking{ID: id}, Replayed: models.BookingDraft, Consistent: true}, nil
}

func do(r http.Handler, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bookingRouter(svc booking.LifecycleService) *gin.Engine {
	h := NewBookingHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/bookings", h.CreateBooking)
	r.GET("/bookings/:id", h.GetBooking)
	r.POST("/bookings/:id/transition", h.TransitionBooking)
	r.GET("/bookings/:id/audit", h.GetBookingHistory)
	return r
}

func TestTransitionErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", booking.ErrBookingNotFound, http.StatusNotFound},
		{"invalid", &booking.InvalidTransitionError{From: models.BookingCancelled, To: models.BookingConfirmed}, http.StatusUnprocessableEntity},
		{"conflict", fmt.Errorf("booking b1: %w", booking.ErrTransitionConflict), http.StatusConflict},
		{"audit", &booking.AuditWriteError{BookingID: "b1", Err: errors.New("disk full")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubLifecycle{transitionErr: tt.err}
			w := do(bookingRouter(svc), http.MethodPost, "/bookings/b1/transition", []byte(`{"state":"proposed"}`), nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body)
			}
			if len(svc.transitions) != 1 || svc.transitions[0] != "b1:proposed:human" {
				t.Errorf("transitions = %v", svc.transitions)
			}
		})
	}
}

func TestTransitionRejectsUnknownActor(t *testing.T) {
	svc := &stubLifecycle{}
	w := do(bookingRouter(svc), http.MethodPost, "/bookings/b1/transition", []byte(`{"state":"proposed","actor":"robot"}`), nil)
	if w.Code != http.StatusBadRequest || len(svc.transitions) != 0 {
		t.Errorf("status = %d transitions = %v", w.Code, svc.transitions)
	}
}

func TestCreateAndHistory(t *testing.T) {
	r := bookingRouter(&stubLifecycle{})
	w := do(r, http.MethodPost, "/bookings", []byte(`{"instructor_id":"i1","customer_ref":"+34600000000","date":"2026-11-02","start":600,"end":660}`), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body)
	}
	if w := do(r, http.MethodPost, "/bookings", []byte(`{"instructor_id":"i1"}`), nil); w.Code != http.StatusBadRequest {
		t.Errorf("create without required fields = %d, want 400", w.Code)
	}
	if w := do(r, http.MethodGet, "/bookings/nope", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("get missing = %d, want 404", w.Code)
	}

	w = do(r, http.MethodGet, "/bookings/b1/audit", nil, nil)
	var hist booking.History
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil || !hist.Consistent {
		t.Errorf("history = %+v, %v", hist, err)
	}
}

type stubPipeline struct {
	events []models.InboundEvent
}

func (s *stubPipeline) HandleInbound(_ context.Context, e models.InboundEvent) (pipeline.Outcome, error) {
	s.events = append(s.events, e)
	return pipeline.Outcome{Ingest: models.IngestResult{Status: models.IngestInserted, ID: "evt-" + e.ExternalID}}, nil
}

func TestWhatsAppWebhook(t *testing.T) {
	p := &stubPipeline{}
	h := &WhatsAppHandler{Pipeline: p, VerifyToken: "s3cret", Logger: zap.NewNop()}
	r := gin.New()
	r.GET("/wa", h.Verify)
	r.POST("/wa", h.Receive)

	w := do(r, http.MethodGet, "/wa?hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=42", nil, nil)
	if w.Code != http.StatusOK || w.Body.String() != "42" {
		t.Errorf("verify = %d %q", w.Code, w.Body)
	}
	if w := do(r, http.MethodGet, "/wa?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", nil, nil); w.Code != http.StatusForbidden {
		t.Errorf("bad token = %d, want 403", w.Code)
	}

	body := `{"entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"wa-1"},"messages":[
		{"from":"34600000000","id":"wamid.1","timestamp":"1767225600","type":"text","text":{"body":"Free on Friday?"}},
		{"from":"34600000000","id":"wamid.2","timestamp":"1767225601","type":"image"}]}}]}]}`
	w = do(r, http.MethodPost, "/wa", []byte(body), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("receive = %d: %s", w.Code, w.Body)
	}
	if len(p.events) != 1 {
		t.Fatalf("pipeline got %d events, want 1", len(p.events))
	}
	got := p.events[0]
	if got.Channel != models.ChannelWhatsApp || got.ExternalID != "wamid.1" || got.ChannelID != "wa-1" || got.Text != "Free on Friday?" {
		t.Errorf("event = %+v", got)
	}
	if !got.ReceivedAt.Equal(time.Unix(1767225600, 0)) {
		t.Errorf("received at = %v", got.ReceivedAt)
	}
}

type stubIngester struct {
	seen      map[string]bool
	processed map[string]bool
}

func newStubIngester() *stubIngester {
	return &stubIngester{seen: map[string]bool{}, processed: map[string]bool{}}
}

func (s *stubIngester) Ingest(_ context.Context, e models.InboundEvent) (models.IngestResult, error) {
	id := "evt-" + e.ExternalID
	if s.seen[e.ExternalID] {
		return models.IngestResult{Status: models.IngestAlreadyExists, ID: id, Pending: !s.processed[id]}, nil
	}
	s.seen[e.ExternalID] = true
	return models.IngestResult{Status: models.IngestInserted, ID: id}, nil
}

func (s *stubIngester) MarkProcessed(_ context.Context, id string) error {
	s.processed[id] = true
	return nil
}

func signedStripeEvent(t *testing.T, secret, eventID, bookingID string) (body []byte, header string) {
	t.Helper()
	body = []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent","metadata":{"booking_id":%q}}}}`, eventID, bookingID))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: body, Secret: secret, Timestamp: time.Now()})
	return body, signed.Header
}

func TestStripeWebhookConfirmsOnce(t *testing.T) {
	const secret = "whsec_test"
	svc := &stubLifecycle{}
	h := &PaymentHandler{Secret: secret, Ingest: newStubIngester(), Bookings: svc, Logger: zap.NewNop()}
	r := gin.New()
	r.POST("/stripe", h.StripeWebhook)

	body, sig := signedStripeEvent(t, secret, "evt_1", "b1")
	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodPost, "/stripe", body, map[string]string{"Stripe-Signature": sig}); w.Code != http.StatusOK {
			t.Fatalf("delivery %d = %d: %s", i+1, w.Code, w.Body)
		}
	}
	if len(svc.transitions) != 1 || svc.transitions[0] != "b1:confirmed:system" {
		t.Errorf("transitions = %v, want one system confirmation", svc.transitions)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubLifecycle{}
	h := &PaymentHandler{Secret: "whsec_test", Ingest: newStubIngester(), Bookings: svc, Logger: zap.NewNop()}
	r := gin.New()
	r.POST("/stripe", h.StripeWebhook)

	body, sig := signedStripeEvent(t, "whsec_other", "evt_1", "b1")
	if w := do(r, http.MethodPost, "/stripe", body, map[string]string{"Stripe-Signature": sig}); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(svc.transitions) != 0 {
		t.Errorf("transitions = %v", svc.transitions)
	}
}

func TestStripeWebhookInvalidTransitionIsAcknowledged(t *testing.T) {
	const secret = "whsec_test"
	svc := &stubLifecycle{transitionErr: &booking.InvalidTransitionError{From: models.BookingExpired, To: models.BookingConfirmed}}
	h := &PaymentHandler{Secret: secret, Ingest: newStubIngester(), Bookings: svc, Logger: zap.NewNop()}
	r := gin.New()
	r.POST("/stripe", h.StripeWebhook)

	body, sig := signedStripeEvent(t, secret, "evt_2", "b1")
	w := do(r, http.MethodPost, "/stripe", body, map[string]string{"Stripe-Signature": sig})
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("not_confirmed")) {
		t.Errorf("status = %d body = %s", w.Code, w.Body)
	}
}

func TestStripeWebhookRetriesFailedConfirmation(t *testing.T) {
	const secret = "whsec_test"
	svc := &stubLifecycle{transitionErr: errors.New("mongo unavailable")}
	h := &PaymentHandler{Secret: secret, Ingest: newStubIngester(), Bookings: svc, Logger: zap.NewNop()}
	r := gin.New()
	r.POST("/stripe", h.StripeWebhook)

	body, sig := signedStripeEvent(t, secret, "evt_3", "b1")
	header := map[string]string{"Stripe-Signature": sig}
	if w := do(r, http.MethodPost, "/stripe", body, header); w.Code != http.StatusInternalServerError {
		t.Fatalf("first delivery = %d, want 500", w.Code)
	}

	svc.transitionErr = nil
	w := do(r, http.MethodPost, "/stripe", body, header)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"confirmed"`)) {
		t.Fatalf("redelivery = %d: %s", w.Code, w.Body)
	}
	if w := do(r, http.MethodPost, "/stripe", body, header); !bytes.Contains(w.Body.Bytes(), []byte("already_exists")) {
		t.Errorf("third delivery = %s, want already_exists", w.Body)
	}
	if len(svc.transitions) != 2 {
		t.Errorf("transitions = %v, want the failed attempt and the retry", svc.transitions)
	}
}

type stubSender struct{ err error }

func (s stubSender) SendDraft(_ context.Context, id string) (*models.Draft, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Draft{ID: id, SentAt: time.Now()}, nil
}

func TestSendDraftStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{outbound.ErrDraftNotFound, http.StatusNotFound},
		{outbound.ErrAlreadySent, http.StatusConflict},
		{outbound.ErrSendInProgress, http.StatusConflict},
		{fmt.Errorf("failed to send draft d1: %w", outbound.ErrRateLimited), http.StatusTooManyRequests},
		{errors.New("transport down"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		h := &DraftHandler{Sender: stubSender{err: tt.err}, Logger: zap.NewNop()}
		r := gin.New()
		r.POST("/drafts/:id/send", h.SendDraft)
		if w := do(r, http.MethodPost, "/drafts/d1/send", nil, nil); w.Code != tt.want {
			t.Errorf("err %v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}
