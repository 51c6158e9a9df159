package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/finishline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	convey.Convey("Given a wrapped handler that writes a body", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("slow down"))
		}, "test")

		convey.Convey("Then the first status reaches the client", func() {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusTooManyRequests)
			convey.So(rec.Body.String(), convey.ShouldEqual, "slow down")
		})
	})

	convey.Convey("Given response statuses", t, func() {
		cases := []struct {
			status int
			kind   string
		}{
			{http.StatusOK, ""},
			{http.StatusNoContent, ""},
			{http.StatusBadRequest, "client_error"},
			{http.StatusNotFound, "not_found"},
			{http.StatusConflict, "conflict"},
			{http.StatusTooManyRequests, "backpressure"},
			{http.StatusServiceUnavailable, "unavailable"},
			{http.StatusInternalServerError, "server_error"},
		}

		convey.Convey("Then each maps to its error kind", func() {
			for _, tc := range cases {
				convey.So(errorKind(tc.status), convey.ShouldEqual, tc.kind)
			}
		})
	})
}
