package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/render"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, logger)
	s := New(runner, nil, pipeline.Options{}, logger)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "ok" || got["busy"] != false {
		t.Errorf("healthz = %v", got)
	}
}

func TestPresets(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/presets")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got []sheet.Preset
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sheet.Presets(), got); diff != "" {
		t.Errorf("presets mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckDigit(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		digits string
		status int
		code   string
	}{
		{"400638133393", http.StatusOK, "4006381333931"},
		{"400-638-133-393", http.StatusOK, "4006381333931"},
		{"12345", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.digits, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/check-digit/" + tt.digits)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.code == "" {
				return
			}
			var got struct {
				CheckDigit int    `json:"check_digit"`
				Code       string `json:"code"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Code != tt.code || got.CheckDigit != 1 {
				t.Errorf("got %+v, want code %s", got, tt.code)
			}
		})
	}
}

func TestSheetsFormats(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		format      string
		contentType string
		file        string
	}{
		{"pdf", "application/pdf", "planche_etiquettes_1700000000000.pdf"},
		{"png", "image/png", "planche_etiquettes_1700000000000_page-2.png"},
		{"json", "application/json", "planche_etiquettes_1700000000000.json"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/sheets", SheetRequest{
				Codes:  []string{"A1", "A2", "A3", "A4", "A5"},
				Grid:   map[string]string{"columns": "2", "rows": "2"},
				Format: tt.format,
				Page:   2,
			})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if got := resp.Header.Get("X-Pages"); got != "2" {
				t.Errorf("X-Pages = %q, want 2", got)
			}
			if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, tt.file) {
				t.Errorf("Content-Disposition = %q, want %s", got, tt.file)
			}
			body, _ := io.ReadAll(resp.Body)
			if len(body) == 0 {
				t.Error("empty body")
			}
		})
	}
}

func TestSheetsCellErrors(t *testing.T) {
	_, ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/sheets", SheetRequest{
		Codes:     []string{"4006381333931", "bad"},
		Symbology: "ean13",
		Format:    "json",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Cell-Errors"); got != "1" {
		t.Errorf("X-Cell-Errors = %q, want 1", got)
	}
}

func TestSheetsErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		req    SheetRequest
		status int
		code   errors.Code
	}{
		{"empty list", SheetRequest{}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad format", SheetRequest{Codes: []string{"x"}, Format: "svg"}, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad preset", SheetRequest{Codes: []string{"x"}, Preset: "nope"}, http.StatusBadRequest, errors.ErrCodeInvalidPreset},
		{"bad symbology", SheetRequest{Codes: []string{"x"}, Symbology: "pdf417"}, http.StatusBadRequest, errors.ErrCodeInvalidSymbology},
		{"bad arrow", SheetRequest{Codes: []string{"x"}, Grid: map[string]string{"arrow": "sideways"}}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"page out of range", SheetRequest{Codes: []string{"x"}, Format: "png", Page: 3}, http.StatusNotFound, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/sheets", tt.req)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := decodeError(t, resp).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestSheetsRejectsUnknownFields(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/sheets", "application/json", strings.NewReader(`{"codes":["x"],"colour":"red"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSheetsPreview(t *testing.T) {
	_, ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/sheets", SheetRequest{Preview: true, Format: "json"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Pages"); got != "1" {
		t.Errorf("X-Pages = %q, want 1", got)
	}
}

func TestSheetsNonFiniteGrid(t *testing.T) {
	_, ts := newTestServer(t)
	grid := map[string]string{"row_height": "NaN", "margin_left": "Inf", "code_scale": "nan"}
	for _, format := range []string{"json", "png"} {
		t.Run(format, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/sheets", SheetRequest{Codes: []string{"A1", "B2"}, Grid: grid, Format: format})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body %+v", resp.StatusCode, decodeError(t, resp))
			}
			if got := resp.Header.Get("X-Cell-Errors"); got != "0" {
				t.Errorf("X-Cell-Errors = %q, want 0", got)
			}
		})
	}
}

type blockingRenderer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *blockingRenderer) Render(sheet.Label) (image.Image, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func TestSheetsBusy(t *testing.T) {
	s, ts := newTestServer(t)
	rend := &blockingRenderer{started: make(chan struct{}), release: make(chan struct{})}
	s.Runner.NewRenderer = func(pipeline.Options) render.Renderer { return rend }

	first := make(chan int, 1)
	go func() {
		data, _ := json.Marshal(SheetRequest{Codes: []string{"a"}, Format: "json"})
		resp, err := http.Post(ts.URL+"/api/sheets", "application/json", bytes.NewReader(data))
		if err != nil {
			first <- 0
			return
		}
		resp.Body.Close()
		first <- resp.StatusCode
	}()
	<-rend.started

	resp := postJSON(t, ts.URL+"/api/sheets", SheetRequest{Codes: []string{"b"}, Format: "json"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status while busy = %d, want 409", resp.StatusCode)
	}
	if got := decodeError(t, resp).Code; got != errors.ErrCodeExportBusy {
		t.Errorf("code = %s, want %s", got, errors.ErrCodeExportBusy)
	}

	close(rend.release)
	if got := <-first; got != http.StatusOK {
		t.Errorf("first export status = %d, want 200", got)
	}
}

func upload(t *testing.T, url string, data []byte, skipHeader bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "codes.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(data)
	if skipHeader {
		_ = mw.WriteField("skip_header", "true")
	}
	_ = mw.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestImport(t *testing.T) {
	_, ts := newTestServer(t)

	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "SKU")
	_ = f.SetCellValue("Sheet1", "A2", "4006381333931")
	_ = f.SetCellValue("Sheet1", "A4", "5901234123457")
	wb, err := f.WriteToBuffer()
	f.Close()
	if err != nil {
		t.Fatal(err)
	}

	resp := upload(t, ts.URL+"/api/import", wb.Bytes(), true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got struct {
		Codes []string `json:"codes"`
		Count int      `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"4006381333931", "5901234123457"}, got.Codes); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}

	bad := upload(t, ts.URL+"/api/import", []byte("not a workbook"), false)
	if bad.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", bad.StatusCode)
	}
}

func TestAssetsRoute(t *testing.T) {
	s, _ := newTestServer(t)
	s.Assets = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.URL.Path)
	})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/assets/style.css")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "/style.css" {
		t.Errorf("asset path = %q, want /style.css", body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidGrid:  http.StatusBadRequest,
		errors.ErrCodeExportBusy:   http.StatusConflict,
		errors.ErrCodeImportFailed: http.StatusUnprocessableEntity,
		errors.ErrCodeNetwork:      http.StatusBadGateway,
		errors.ErrCodeExportFailed: http.StatusInternalServerError,
		errors.ErrCodeFileNotFound: http.StatusNotFound,
		errors.ErrCodeUnsupported:  http.StatusNotImplemented,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
