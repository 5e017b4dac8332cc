package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"gpdash/frontend/login"
	"gpdash/infrastructure/allocation"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/audit"
	"gpdash/infrastructure/cache"
	"gpdash/infrastructure/erp"
	"gpdash/infrastructure/rbac"
	"gpdash/infrastructure/reservation"
	"gpdash/infrastructure/site"
)

// fakeGP stands in for the SQL Server reads. One serialized item at one
// site, three serials, one of them already on another open order.
type fakeGP struct {
	orders map[string]*erp.SalesOrderDetail
}

func newFakeGP() *fakeGP {
	detail := &erp.SalesOrderDetail{
		SalesOrderSummary: erp.SalesOrderSummary{
			SopNumber:      "SO1042",
			DocDate:        time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			CustomerNumber: "AARONFIT0001",
			CustomerName:   "Aaron Fitz Electrical",
			Site:           "MAIN",
			Total:          decimal.RequireFromString("2500.00"),
		},
		Lines: []erp.SalesOrderLine{
			{
				ItemNumber:  "WIDGET-1",
				Description: "Widget, serialized",
				Site:        "MAIN",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.RequireFromString("1250.00"),
				Extended:    decimal.RequireFromString("2500.00"),
				Serials:     []string{"SN-0001"},
			},
		},
	}
	return &fakeGP{orders: map[string]*erp.SalesOrderDetail{"SO1042": detail}}
}

func (f *fakeGP) Customers(_ context.Context, _ string, _, _ int) ([]erp.Customer, error) {
	return []erp.Customer{{Number: "AARONFIT0001", Name: "Aaron Fitz Electrical", City: "Chicago", State: "IL"}}, nil
}

func (f *fakeGP) CustomerByNumber(_ context.Context, number string) (erp.Customer, error) {
	return erp.Customer{Number: number, Name: "Aaron Fitz Electrical"}, nil
}

func (f *fakeGP) Items(_ context.Context, _, _ string, _, _ int) ([]erp.ItemSummary, error) {
	return []erp.ItemSummary{{
		ItemNumber:  "WIDGET-1",
		Description: "Widget, serialized",
		Serialized:  true,
		OnHand:      decimal.NewFromInt(3),
		Allocated:   decimal.NewFromInt(1),
	}}, nil
}

func (f *fakeGP) Invoices(_ context.Context, _ string, _, _ int) ([]erp.Invoice, error) {
	return []erp.Invoice{{
		DocNumber:      "INV2001",
		DocDate:        time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		CustomerNumber: "AARONFIT0001",
		CustomerName:   "Aaron Fitz Electrical",
		Total:          decimal.RequireFromString("980.00"),
	}}, nil
}

func (f *fakeGP) OpenSalesOrders(_ context.Context, _ string, _, _ int) ([]erp.SalesOrderSummary, error) {
	out := make([]erp.SalesOrderSummary, 0, len(f.orders))
	for _, d := range f.orders {
		out = append(out, d.SalesOrderSummary)
	}
	return out, nil
}

func (f *fakeGP) SalesOrder(_ context.Context, sopNumber string) (*erp.SalesOrderDetail, error) {
	d, ok := f.orders[sopNumber]
	if !ok {
		return nil, erp.ErrOrderNotFound
	}
	return d, nil
}

func (f *fakeGP) ItemTracking(_ context.Context, itemNumber string) (allocation.ItemTracking, error) {
	return allocation.ItemTracking{ItemNumber: itemNumber, Description: "Widget, serialized", Serialized: true}, nil
}

func (f *fakeGP) SerialUnitsAtSite(_ context.Context, _, _ string) ([]allocation.SerialUnit, error) {
	recv := time.Now().AddDate(0, 0, -4)
	return []allocation.SerialUnit{
		{SerialNumber: "SN-0001", ReceiptDate: recv},
		{SerialNumber: "SN-0002", ReceiptDate: recv},
		{SerialNumber: "SN-0003", ReceiptDate: recv},
	}, nil
}

func (f *fakeGP) HasSerialUnitsAnywhere(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (f *fakeGP) SerialOrderAllocations(_ context.Context, _ string) (map[string]string, error) {
	return map[string]string{"SN-0003": "SO9999"}, nil
}

func (f *fakeGP) SiteQuantity(_ context.Context, _, _ string) (allocation.SiteQuantity, error) {
	return allocation.SiteQuantity{OnHand: decimal.NewFromInt(3), Allocated: decimal.NewFromInt(1)}, nil
}

func (f *fakeGP) Sites(_ context.Context) ([]erp.Site, error) {
	return []erp.Site{
		{Code: "MAIN", Description: "Main warehouse"},
		{Code: "NORTH", Description: "North warehouse"},
	}, nil
}

type integrationEnv struct {
	server *httptest.Server
	db     *appdb.DB
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := appdb.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "appdb", "migrations")
	if err := appdb.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if err := login.UpsertUser(context.Background(), db, "admin", "admin@example.com", "Dash Admin", "admin", "Admin123!Gpdash"); err != nil {
		t.Fatalf("seed admin user: %v", err)
	}
	if err := login.UpsertUser(context.Background(), db, "sales1", "sales1@example.com", "Sales One", "sales", "Sales123!Gpdash"); err != nil {
		t.Fatalf("seed sales user: %v", err)
	}

	sessionCache := cache.NewUserSessionCache()
	userCache := cache.NewUserCache()
	rbacCache := cache.NewRbacRolesCache()
	rbacSvc := rbac.New(rbacCache)
	auditSvc := audit.NewService()
	reservations := reservation.NewService(db, auditSvc)
	gp := newFakeGP()
	resolver := allocation.NewResolver(gp, reservations)
	catalog := site.NewCatalog(gp)

	s := NewServer("127.0.0.1:0", Deps{
		DB:           db,
		GP:           gp,
		Resolver:     resolver,
		Reservations: reservations,
		Sites:        catalog,
		SessionCache: sessionCache,
		UserCache:    userCache,
		RbacCache:    rbacCache,
		Rbac:         rbacSvc,
		Audit:        auditSvc,
	})
	ts := httptest.NewServer(s.router)
	env := &integrationEnv{server: ts, db: db}
	t.Cleanup(func() {
		env.server.Close()
		_ = env.db.Close()
	})

	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "X-CSRF-Token" {
			return c.Value
		}
	}
	return ""
}

func postForm(t *testing.T, client *http.Client, baseURL, path string, data url.Values) *http.Response {
	t.Helper()
	if data == nil {
		data = url.Values{}
	}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	resp, err := client.PostForm(baseURL+path, data)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func postMultipartFile(t *testing.T, client *http.Client, baseURL, path, fieldName, fileName string, fileContents []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if token := csrfToken(t, client, baseURL); token != "" {
		if err := writer.WriteField("_csrf", token); err != nil {
			t.Fatalf("write csrf multipart field: %v", err)
		}
	}

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create multipart file field: %v", err)
	}
	if _, err := part.Write(fileContents); err != nil {
		t.Fatalf("write multipart file content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, &body)
	if err != nil {
		t.Fatalf("build multipart request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST multipart %s failed: %v", path, err)
	}
	return resp
}

func loginAs(t *testing.T, client *http.Client, baseURL, loginName, password string) {
	t.Helper()

	resp := get(t, client, baseURL, "/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, baseURL, "/login", url.Values{
		"login":    {loginName},
		"password": {password},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "/tasker/salesorders") {
		t.Fatalf("unexpected login redirect: %s", loc)
	}
	_ = resp.Body.Close()
}

type reserveResult struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	ReservedBy string `json:"reservedBy"`
}

func postSerialAction(t *testing.T, client *http.Client, baseURL, path, item, serial string) reserveResult {
	t.Helper()
	resp := postForm(t, client, baseURL, path, url.Values{
		"itemNumber":   {item},
		"serialNumber": {serial},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s expected 200, got %d", path, resp.StatusCode)
	}
	var result reserveResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	_ = resp.Body.Close()
	return result
}

func TestCSRFPostWithoutTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp, err := client.PostForm(env.server.URL+"/login", url.Values{
		"login":    {"admin"},
		"password": {"Admin123!Gpdash"},
	})
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", resp.StatusCode)
	}
}

func TestRootRedirects(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected anonymous root redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	loginAs(t, client, env.server.URL, "admin", "Admin123!Gpdash")
	resp = get(t, client, env.server.URL, "/")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/tasker/salesorders" {
		t.Fatalf("expected authed root redirect to sales orders, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestRbacAdminScreensDeniedForSales(t *testing.T) {
	env, salesClient := setupIntegrationServer(t)
	loginAs(t, salesClient, env.server.URL, "sales1", "Sales123!Gpdash")

	for _, path := range []string{"/tasker/admin/users", "/tasker/activity", "/tasker/salesforce/import"} {
		resp := get(t, salesClient, env.server.URL, path)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected sales redirect for %s, got %d", path, resp.StatusCode)
		}
	}

	adminClient := newHTTPClient(t)
	loginAs(t, adminClient, env.server.URL, "admin", "Admin123!Gpdash")
	for _, path := range []string{"/tasker/admin/users", "/tasker/activity", "/tasker/salesforce/import"} {
		resp := get(t, adminClient, env.server.URL, path)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected admin 200 for %s, got %d", path, resp.StatusCode)
		}
	}
}

func TestSalesOrderPagesRenderFromGP(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "sales1", "Sales123!Gpdash")

	resp := get(t, client, env.server.URL, "/tasker/salesorders")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected list 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "SO1042") || !strings.Contains(body, "Aaron Fitz Electrical") {
		t.Fatalf("list page missing order row: %s", body)
	}

	resp = get(t, client, env.server.URL, "/tasker/salesorders/SO1042")
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected detail 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "WIDGET-1") || !strings.Contains(body, "openAllocationModal") {
		t.Fatalf("detail page missing allocation hook: %s", body)
	}
	if !strings.Contains(body, "/tasker/salesorders/SO1042/pick-ticket") {
		t.Fatalf("detail page missing pick ticket link")
	}

	resp = get(t, client, env.server.URL, "/tasker/salesorders/NOPE")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", resp.StatusCode)
	}
}

func TestBrowsePagesRender(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "sales1", "Sales123!Gpdash")

	for path, want := range map[string]string{
		"/tasker/customers": "Aaron Fitz Electrical",
		"/tasker/inventory": "WIDGET-1",
		"/tasker/invoices":  "INV2001",
		"/tasker/sites":     "Main warehouse",
	} {
		resp := get(t, client, env.server.URL, path)
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, resp.StatusCode)
		}
		if !strings.Contains(body, want) {
			t.Fatalf("page %s missing %q", path, want)
		}
	}
}

func TestSessionGetsActiveSiteAutomatically(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "sales1", "Sales123!Gpdash")

	// Inventory is site scoped; with no active site it bounces to /tasker/sites.
	// The authenticate middleware should have assigned the first GP site.
	resp := get(t, client, env.server.URL, "/tasker/inventory")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected inventory 200 after auto site, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "MAIN") {
		t.Fatalf("expected MAIN site scope, got: %s", body)
	}

	var stored string
	if err := env.db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COALESCE(active_site, '') FROM sessions LIMIT 1`).Scan(ctx, &stored)
	}); err != nil {
		t.Fatalf("read session site: %v", err)
	}
	if stored != "MAIN" {
		t.Fatalf("expected persisted active site MAIN, got %q", stored)
	}
}

func TestAllocationDataSnapshot(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "sales1", "Sales123!Gpdash")

	resp := get(t, client, env.server.URL, "/tasker/api/allocation-data?itemNumber=WIDGET-1&currentSopNumber=SO1042")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var snap struct {
		ItemNumber     string `json:"itemNumber"`
		SiteID         string `json:"siteId"`
		TrackingOption string `json:"trackingOption"`
		AvailableQty   string `json:"availableQty"`
		Serials        []struct {
			SerialNumber            string `json:"serialNumber"`
			AllocatedToSopNumber    string `json:"allocatedToSopNumber"`
			IsAllocatedByOtherOrder bool   `json:"isAllocatedByOtherOrder"`
		} `json:"serials"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	_ = resp.Body.Close()

	if snap.TrackingOption != "serialized" {
		t.Fatalf("expected serialized item, got %s", snap.TrackingOption)
	}
	if snap.SiteID != "MAIN" {
		t.Fatalf("expected session active site MAIN, got %s", snap.SiteID)
	}
	if len(snap.Serials) != 3 {
		t.Fatalf("expected 3 serials, got %d", len(snap.Serials))
	}
	// SN-0003 belongs to SO9999 so only two units count as available.
	if snap.AvailableQty != "2" {
		t.Fatalf("expected availableQty 2, got %s", snap.AvailableQty)
	}
	for _, sn := range snap.Serials {
		if sn.SerialNumber == "SN-0003" && !sn.IsAllocatedByOtherOrder {
			t.Fatalf("expected SN-0003 blocked by SO9999")
		}
	}
}

func TestSerialReservationContentionOverHTTP(t *testing.T) {
	env, alice := setupIntegrationServer(t)
	loginAs(t, alice, env.server.URL, "admin", "Admin123!Gpdash")

	bob := newHTTPClient(t)
	loginAs(t, bob, env.server.URL, "sales1", "Sales123!Gpdash")

	if res := postSerialAction(t, alice, env.server.URL, "/tasker/api/serials/reserve", "WIDGET-1", "SN-0001"); !res.Success {
		t.Fatalf("expected alice's reserve to succeed: %+v", res)
	}

	res := postSerialAction(t, bob, env.server.URL, "/tasker/api/serials/reserve", "WIDGET-1", "SN-0001")
	if res.Success {
		t.Fatalf("expected bob's reserve to be blocked")
	}
	if res.ReservedBy != "Dash Admin" {
		t.Fatalf("expected holder name in conflict, got %q", res.ReservedBy)
	}

	// Bob's snapshot sees the hold as someone else's.
	resp := get(t, bob, env.server.URL, "/tasker/api/allocation-data?itemNumber=WIDGET-1")
	var snap struct {
		Serials []struct {
			SerialNumber   string `json:"serialNumber"`
			ReservedByName string `json:"reservedByName"`
			IsReservedByMe bool   `json:"isReservedByMe"`
		} `json:"serials"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	_ = resp.Body.Close()
	found := false
	for _, sn := range snap.Serials {
		if sn.SerialNumber == "SN-0001" {
			found = true
			if sn.IsReservedByMe || sn.ReservedByName != "Dash Admin" {
				t.Fatalf("expected SN-0001 held by Dash Admin, got %+v", sn)
			}
		}
	}
	if !found {
		t.Fatalf("SN-0001 missing from snapshot")
	}

	// Release is owner gated: bob's release must not free alice's hold.
	if res := postSerialAction(t, bob, env.server.URL, "/tasker/api/serials/release", "WIDGET-1", "SN-0001"); !res.Success {
		t.Fatalf("release is idempotent and should report success: %+v", res)
	}
	if res := postSerialAction(t, bob, env.server.URL, "/tasker/api/serials/reserve", "WIDGET-1", "SN-0001"); res.Success {
		t.Fatalf("expected hold to survive a non-owner release")
	}

	if res := postSerialAction(t, alice, env.server.URL, "/tasker/api/serials/release", "WIDGET-1", "SN-0001"); !res.Success {
		t.Fatalf("owner release failed: %+v", res)
	}
	if res := postSerialAction(t, bob, env.server.URL, "/tasker/api/serials/reserve", "WIDGET-1", "SN-0001"); !res.Success {
		t.Fatalf("expected bob's reserve to succeed after release: %+v", res)
	}

	// Abandoning the editing session drops everything bob holds.
	resp = postForm(t, bob, env.server.URL, "/tasker/api/serials/release-all", nil)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("release-all expected 200, got %d", resp.StatusCode)
	}
	var remaining int
	if err := env.db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM serial_reservations`).Scan(ctx, &remaining)
	}); err != nil {
		t.Fatalf("count reservations: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected no holds after release-all, got %d", remaining)
	}
}

func TestPickTicketPDFStreamed(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "sales1", "Sales123!Gpdash")

	resp := get(t, client, env.server.URL, "/tasker/salesorders/SO1042/pick-ticket")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	if !strings.HasPrefix(body, "%PDF") {
		t.Fatalf("expected PDF payload")
	}
}

func TestSalesforceImportFlow(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!Gpdash")

	csv := "sf_order_id,order_number,gp_sop_number,account_name,status,owner_name,total_amount,sf_last_updated\n" +
		"801xx001,ORD-1001,SO1042,Aaron Fitz,Activated,Pat Lee,2500.00,2026-08-01T10:00:00Z\n"
	resp := postMultipartFile(t, client, env.server.URL, "/tasker/salesforce/import", "file", "orders.csv", []byte(csv))
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected import redirect, got %d", resp.StatusCode)
	}

	resp = get(t, client, env.server.URL, "/tasker/salesforce/import")
	body := readBody(t, resp)
	if !strings.Contains(body, "ORD-1001") {
		t.Fatalf("import page missing imported order: %s", body)
	}

	// The order page picks the cross reference up by SOP number.
	resp = get(t, client, env.server.URL, "/tasker/salesorders/SO1042")
	body = readBody(t, resp)
	if !strings.Contains(body, "ORD-1001") {
		t.Fatalf("order detail missing Salesforce cross reference")
	}
}

func TestAdminCreatesUserOverHTTP(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!Gpdash")

	resp := postForm(t, client, env.server.URL, "/tasker/admin/users", url.Values{
		"username":     {"sales2"},
		"display_name": {"Sales Two"},
		"email":        {"sales2@example.com"},
		"password":     {"Sales2!Password99"},
		"role":         {"sales"},
	})
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || !strings.Contains(resp.Header.Get("Location"), "status=") {
		t.Fatalf("expected create redirect with status, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	fresh := newHTTPClient(t)
	loginAs(t, fresh, env.server.URL, "sales2", "Sales2!Password99")
}
