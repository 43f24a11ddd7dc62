package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bookdesk/handlers"

	"github.com/gin-gonic/gin"
)

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hit := map[string]bool{}
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			hit[name] = true
			c.Status(http.StatusNoContent)
		}
	}
	hb := &handlers.HandlerBundle{
		CreateBooking:     mark("create"),
		GetBooking:        mark("get"),
		TransitionBooking: mark("transition"),
		GetBookingHistory: mark("audit"),
		WhatsAppVerify:    mark("wa-verify"),
		WhatsAppReceive:   mark("wa-receive"),
		StripeWebhook:     mark("stripe"),
		SendDraft:         mark("send"),
		Health:            mark("health"),
	}
	r := gin.New()
	RegisterRoutes(r, hb)

	calls := []struct{ method, path, name string }{
		{http.MethodPost, "/api/bookings", "create"},
		{http.MethodGet, "/api/bookings/b1", "get"},
		{http.MethodPost, "/api/bookings/b1/transition", "transition"},
		{http.MethodGet, "/api/bookings/b1/audit", "audit"},
		{http.MethodGet, "/webhooks/whatsapp", "wa-verify"},
		{http.MethodPost, "/webhooks/whatsapp", "wa-receive"},
		{http.MethodPost, "/webhooks/stripe", "stripe"},
		{http.MethodPost, "/api/drafts/d1/send", "send"},
		{http.MethodGet, "/health", "health"},
	}
	for _, c := range calls {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(c.method, c.path, nil))
		if !hit[c.name] {
			t.Errorf("%s %s did not reach %s (status %d)", c.method, c.path, c.name, w.Code)
		}
	}
}
