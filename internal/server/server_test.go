package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"opsdesk/internal/audit"
	"opsdesk/internal/db"
	"opsdesk/internal/domain"
	"opsdesk/internal/migrate"
	"opsdesk/internal/repo"
	"opsdesk/internal/reports"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := repo.Repo{DB: conn}
	handler, err := New(Config{
		Repo:     r,
		Reports:  reports.Engine{Store: r},
		Audit:    audit.Writer{DB: conn},
		BasePath: "/v0",
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestStaffReportRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/users", map[string]any{
		"id": "u1", "name": "Asha Rao", "email": "asha@example.com", "role": "engineer",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create user: %d %s", res.StatusCode, string(data))
	}

	for i, status := range []string{"completed", "completed", "in progress", "pending"} {
		res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks", map[string]any{
			"title": "task", "status": status, "assigned_to": "u1",
		}, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("create task %d: %d %s", i, res.StatusCode, string(data))
		}
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/reports/staff-performance?userId=u1", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("report: %d %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Status  string                   `json:"status"`
		Message string                   `json:"message"`
		Data    reports.StaffPerformance `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("envelope status: %s", envelope.Status)
	}
	if envelope.Data.TotalTasksAssigned != 4 || envelope.Data.CompletedTasks != 2 {
		t.Fatalf("report data: %+v", envelope.Data)
	}
	if envelope.Data.CompletionRate != 50.00 {
		t.Fatalf("completion rate: %v", envelope.Data.CompletionRate)
	}
}

func TestMalformedDateRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/reports/dashboard?fromDate=01-02-2025", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "bad_request" {
		t.Fatalf("error code: %s", envelope.Error.Code)
	}
}

func TestReportNotFoundEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/reports/staff-performance?userId=ghost", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "not_found" {
		t.Fatalf("error code: %s", envelope.Error.Code)
	}
}

func TestLeadAnalyticsActorForcing(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	for _, u := range []map[string]any{
		{"id": "u1", "name": "Asha", "email": "asha@example.com", "role": "engineer"},
		{"id": "u2", "name": "Femi", "email": "femi@example.com", "role": "engineer"},
		{"id": "root", "name": "Root", "email": "root@example.com", "role": "admin"},
	} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/users", u, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("create user: %d %s", res.StatusCode, string(data))
		}
	}
	for i, owner := range []string{"u1", "u1", "u2"} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/leads", map[string]any{
			"id": "l" + string(rune('0'+i)), "name": "lead", "owner_id": owner,
		}, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("create lead: %d %s", res.StatusCode, string(data))
		}
	}

	// Non-admin actor asking for someone else's scope only sees their own.
	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/reports/lead-analytics?userId=u2", nil,
		map[string]string{"X-Actor-Id": "u1"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("report: %d %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Data reports.LeadAnalytics `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Data.OwnerID != "u1" || envelope.Data.TotalLeads != 2 {
		t.Fatalf("forced scope: %+v", envelope.Data)
	}

	// Admin actor keeps the requested scope.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/reports/lead-analytics?userId=u2", nil,
		map[string]string{"X-Actor-Id": "root"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("report: %d %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Data.OwnerID != "u2" || envelope.Data.TotalLeads != 1 {
		t.Fatalf("admin scope: %+v", envelope.Data)
	}
}

func TestExportContentDisposition(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/users", map[string]any{
		"id": "u1", "name": "Asha Rao", "email": "asha@example.com", "role": "engineer",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create user: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/reports/staff-performance/export?userId=u1", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("export: %d %s", res.StatusCode, string(data))
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type: %s", ct)
	}
	want := "attachment; filename=\"Asha_Rao_" + time.Now().UTC().Format("2006-01-02") + ".xlsx\""
	if cd := res.Header.Get("Content-Disposition"); cd != want {
		t.Fatalf("content disposition: %s", cd)
	}
	if len(data) == 0 {
		t.Fatal("empty workbook body")
	}
}

func TestCRUDSoftDelete(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/leads", map[string]any{
		"id": "l1", "name": "Inbound",
	}, map[string]string{"X-Actor-Id": "tester"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create lead: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v0/leads/l1", nil, map[string]string{"X-Actor-Id": "tester"})
	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
		t.Fatalf("delete lead: %d %s", res.StatusCode, string(data))
	}

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/leads/l1", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted lead should 404, got %d", res.StatusCode)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/leads", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list leads: %d %s", res.StatusCode, string(data))
	}
	var leads []domain.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		t.Fatal(err)
	}
	if len(leads) != 0 {
		t.Fatalf("soft-deleted lead must not list: %+v", leads)
	}

	// The mutations show up in the accounting log, newest first.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/audit?entityKind=lead", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("audit: %d %s", res.StatusCode, string(data))
	}
	var entries []domain.AuditEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Action != "lead.deleted" || entries[0].ActorID != "tester" {
		t.Fatalf("audit entries: %+v", entries)
	}
}
