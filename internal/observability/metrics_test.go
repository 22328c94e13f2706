package observability_test

import (
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/observability"
)

var _ = Describe("Metrics", func() {
	It("counts requests and errors per key", func() {
		m := observability.NewMetrics()
		m.RecordRequest("/issues", "GET", 200, 10*time.Millisecond)
		m.RecordRequest("/issues", "GET", 200, 30*time.Millisecond)
		m.RecordError("/issues", "POST", "VALIDATION_FAILED")

		snap := m.Snapshot()
		Expect(snap.Requests).To(HaveKeyWithValue("/issues|GET|200", int64(2)))
		Expect(snap.AvgLatencyMs).To(HaveKeyWithValue("/issues|GET|200", int64(20)))
		Expect(snap.Errors).To(HaveKeyWithValue("/issues|POST|VALIDATION_FAILED", int64(1)))
	})

	It("tolerates a nil receiver", func() {
		var m *observability.Metrics
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		Expect(m.Snapshot().Requests).To(BeEmpty())
	})
})

var _ = Describe("RequestLogger", func() {
	It("assigns a request id and records the route", func() {
		m := observability.NewMetrics()
		app := fiber.New()
		app.Use(observability.RequestLogger(zap.NewNop(), m))
		app.Get("/issues/:id", func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNoContent)
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/issues/abc", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))
		Expect(resp.Header.Get(observability.RequestIDHeader)).NotTo(BeEmpty())
		Expect(m.Snapshot().Requests).To(HaveKeyWithValue("/issues/:id|GET|204", int64(1)))
	})

	It("keeps a caller supplied request id", func() {
		app := fiber.New()
		app.Use(observability.RequestLogger(zap.NewNop(), nil))
		app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(observability.RequestIDHeader, "req-42")
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Header.Get(observability.RequestIDHeader)).To(Equal("req-42"))
	})
})
