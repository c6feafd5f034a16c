package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/dimension"
	"virtual-office-backend/internal/office"
	"virtual-office-backend/internal/timeline"
)

var start = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestOffice(t *testing.T) *office.Office {
	t.Helper()
	n := 0
	engine := timeline.NewEngine(
		timeline.WithNow(func() time.Time { return start }),
		timeline.WithStartTime(start),
	)
	dims := dimension.NewManager(
		dimension.WithNow(func() time.Time { return start }),
		dimension.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("dim-%d", n)
		}),
	)
	return office.New(engine, dims)
}

// request 요청을 보내고 응답 본문을 out 으로 디코딩한다 (out 이 nil 이면 생략)
func request(t *testing.T, app *fiber.App, method, path string, body any, out any, headers ...string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp
}
