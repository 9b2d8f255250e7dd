package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/session"
	tu "github.com/starford/procforge/internal/testutil"
)

// testEnv sets up a temp workspace, archive, session and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*session.Session, http.Handler) {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*session.Session, http.Handler) {
	t.Helper()
	_, fs, state := tu.TestWorkspace(t)
	db := tu.TestDB(t)
	sess := session.New(state,
		session.WithClock(tu.Clock),
		session.WithLogger(tu.Logger()),
		session.WithFiles(fs),
		session.WithArchive(db),
	)
	return sess, NewRouter(sess, authEnabled, authToken, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestGetProcedure(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/procedure", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	resp := decode[ProcedureResponse](t, w)
	if len(resp.Outline.Steps) != 1 {
		t.Fatalf("steps = %d, want 1 placeholder", len(resp.Outline.Steps))
	}
	if len(resp.Outline.Steps[0].Actions) != 1 || len(resp.Outline.Steps[0].Actions[0].Scenarios) != 1 {
		t.Error("placeholder step should carry one action and one scenario")
	}
	if resp.Procedure.Version != "1.0.0" {
		t.Errorf("version = %q", resp.Procedure.Version)
	}
}

func TestSetAndGetField(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/procedure/fields/title", FieldRequest{Value: "Sauvegarde NAS"})
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodGet, "/procedure/fields/title", nil)
	if got := decode[FieldResponse](t, w); got.Value != "Sauvegarde NAS" {
		t.Errorf("title = %q", got.Value)
	}

	w = do(t, router, http.MethodPut, "/procedure/fields/validation.approver", FieldRequest{Value: "Paul Durand"})
	if w.Code != http.StatusOK {
		t.Fatalf("put nested status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/procedure", nil)
	if got := decode[ProcedureResponse](t, w); got.Procedure.Validation.Approver.Name != "Paul Durand" {
		t.Errorf("approver = %q", got.Procedure.Validation.Approver.Name)
	}
}

func TestUnknownField(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/procedure/fields/colour", FieldRequest{Value: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown field = %d, want 404", w.Code)
	}
}

func TestStepLifecycle(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/procedure/steps", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add step = %d", w.Code)
	}
	step := decode[CreatedResponse](t, w).ID

	w = do(t, router, http.MethodPut, "/procedure/steps/"+step+"/fields/name", FieldRequest{Value: "Vérification"})
	if w.Code != http.StatusOK {
		t.Fatalf("set step name = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/procedure/steps/"+step+"/actions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add action = %d", w.Code)
	}
	action := decode[CreatedResponse](t, w).ID

	w = do(t, router, http.MethodPost, "/procedure/actions/"+action+"/scenarios", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add scenario = %d", w.Code)
	}
	scenario := decode[CreatedResponse](t, w).ID

	w = do(t, router, http.MethodPut, "/procedure/scenarios/"+scenario+"/fields/condition", FieldRequest{Value: "Si le service ne répond pas"})
	if w.Code != http.StatusOK {
		t.Fatalf("set condition = %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/procedure", nil)
	resp := decode[ProcedureResponse](t, w)
	if len(resp.Procedure.Steps) != 2 || resp.Procedure.Steps[1].Name != "Vérification" {
		t.Fatalf("steps = %+v", resp.Procedure.Steps)
	}

	w = do(t, router, http.MethodDelete, "/procedure/steps/"+step, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove step = %d", w.Code)
	}
	// Descendants are gone with the step.
	w = do(t, router, http.MethodPut, "/procedure/scenarios/"+scenario+"/fields/condition", FieldRequest{Value: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("orphan scenario = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/procedure/steps/"+step, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second remove = %d, want 404", w.Code)
	}
}

func TestFieldRouteRejectsOtherNodeKind(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/procedure", nil)
	outline := decode[ProcedureResponse](t, w).Outline
	action := string(outline.Steps[0].Actions[0].ID)

	w = do(t, router, http.MethodPut, "/procedure/steps/"+action+"/fields/description", FieldRequest{Value: "x"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("action id on step route = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodGet, "/procedure/actions/"+action+"/fields/description", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get description = %d", w.Code)
	}
	if got := decode[FieldResponse](t, w).Value; got != "" {
		t.Errorf("description = %q, want untouched", got)
	}
}

func TestListRows(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/procedure/lists/tools/", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add row = %d", w.Code)
	}
	if idx := decode[RowCreatedResponse](t, w).Index; idx != 1 {
		t.Errorf("index = %d, want 1", idx)
	}

	w = do(t, router, http.MethodPut, "/procedure/lists/tools/1", FieldRequest{Value: "Tournevis"})
	if w.Code != http.StatusOK {
		t.Fatalf("set row = %d, body = %s", w.Code, w.Body.String())
	}
	rows := decode[ListResponse](t, w).Rows
	if len(rows) != 2 || rows[1].Value != "Tournevis" || !rows[1].Removable {
		t.Errorf("rows = %+v", rows)
	}

	w = do(t, router, http.MethodDelete, "/procedure/lists/tools/0", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove row = %d", w.Code)
	}
	// The last row stays.
	w = do(t, router, http.MethodDelete, "/procedure/lists/tools/0", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("remove last row = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodGet, "/procedure/lists/furniture/", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown list = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodPut, "/procedure/lists/tools/abc", FieldRequest{Value: "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad index = %d, want 400", w.Code)
	}
}

func TestControlsAndScenarioSteps(t *testing.T) {
	sess, router := testEnv(t, "")

	var step procedure.StepID
	var scenario procedure.ScenarioID
	_ = sess.View(func(tr *procedure.Tree) error {
		o := tr.Outline()
		step = o.Steps[0].ID
		scenario = o.Steps[0].Actions[0].Scenarios[0].ID
		return nil
	})

	w := do(t, router, http.MethodPut, "/procedure/steps/"+string(step)+"/controls/0", FieldRequest{Value: "Service démarré"})
	if w.Code != http.StatusOK {
		t.Fatalf("set control = %d", w.Code)
	}
	w = do(t, router, http.MethodPut, "/procedure/scenarios/"+string(scenario)+"/steps/0", FieldRequest{Value: "Relancer le service"})
	if w.Code != http.StatusOK {
		t.Fatalf("set scenario step = %d", w.Code)
	}

	p := sess.Snapshot()
	if got := p.Steps[0].Controls; len(got) != 1 || got[0] != "Service démarré" {
		t.Errorf("controls = %v", got)
	}
	if got := p.Steps[0].Actions[0].Scenarios[0].Steps; len(got) != 1 || got[0] != "Relancer le service" {
		t.Errorf("scenario steps = %v", got)
	}
}

func TestExportRequiresApprover(t *testing.T) {
	_, router := testEnv(t, "")

	req := ExportRequest{ChangeType: models.ChangeMinor, Author: "Lucie", Comment: "Première version"}
	w := do(t, router, http.MethodPost, "/export", req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("export without approver = %d, want 422", w.Code)
	}

	w = do(t, router, http.MethodPost, "/export", ExportRequest{ChangeType: models.ChangeMinor})
	if w.Code != http.StatusBadRequest {
		t.Errorf("export without author = %d, want 400", w.Code)
	}
}

func TestExportAndArchive(t *testing.T) {
	_, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/example", nil)

	req := ExportRequest{ChangeType: models.ChangeMinor, Author: "Lucie", Comment: "Ajout des contrôles"}
	w := do(t, router, http.MethodPost, "/export", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("export = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[ExportResponse](t, w)
	if res.Entry.Version != "1.1.0" || res.Procedure.Author != "Lucie" {
		t.Errorf("entry = %+v, author = %q", res.Entry, res.Procedure.Author)
	}
	if !strings.HasSuffix(res.Filename, "_v1.1.0_2024-03-15.json") {
		t.Errorf("filename = %q", res.Filename)
	}

	w = do(t, router, http.MethodGet, "/version", nil)
	if v := decode[VersionResponse](t, w).Version; v != "1.1.0" {
		t.Errorf("version = %q", v)
	}
	w = do(t, router, http.MethodGet, "/version/history", nil)
	if h := decode[HistoryResponse](t, w); len(h.History) != 1 || len(h.Rows) != 1 {
		t.Errorf("history = %+v", h)
	}

	w = do(t, router, http.MethodGet, "/exports", nil)
	list := decode[ExportListResponse](t, w)
	if list.Total != 1 || len(list.Exports) != 1 {
		t.Fatalf("exports = %+v", list)
	}

	id := list.Exports[0].ID
	w = do(t, router, http.MethodGet, "/exports/"+itoa(id)+"?download=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, res.Filename) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var p models.Procedure
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil || p.Version != "1.1.0" {
		t.Errorf("payload version = %q, err = %v", p.Version, err)
	}

	w = do(t, router, http.MethodGet, "/exports/999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing export = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodGet, "/exports/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestImport(t *testing.T) {
	_, router := testEnv(t, "")

	yaml := []byte("title: Rotation des clés\nversion: 2.1.0\nversionHistory:\n  - version: 2.1.0\n    previousVersion: 2.0.0\n    changeType: minor\n    author: Max\n    comment: Rotation\n    date: 01/02/2024\n")
	w := do(t, router, http.MethodPost, "/import?filename=keys.yml", yaml)
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[ProcedureResponse](t, w)
	if resp.Procedure.Title != "Rotation des clés" || resp.Procedure.Version != "2.1.0" {
		t.Errorf("procedure = %q %q", resp.Procedure.Title, resp.Procedure.Version)
	}

	w = do(t, router, http.MethodPost, "/import", []byte("[1, 2]"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("import array = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/import?format=xml", []byte("{}"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("import xml = %d, want 400", w.Code)
	}

	// A rejected file leaves the procedure untouched.
	w = do(t, router, http.MethodGet, "/procedure/fields/title", nil)
	if got := decode[FieldResponse](t, w); got.Value != "Rotation des clés" {
		t.Errorf("title after failed import = %q", got.Value)
	}
}

func TestDocumentFormats(t *testing.T) {
	_, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/example", nil)

	cases := []struct {
		format, contentType, contains string
	}{
		{"", "application/json", `"cover"`},
		{"html", "text/html", "<!DOCTYPE html>"},
		{"markdown", "text/markdown", "PROC-IT-2024-001"},
		{"text", "text/plain", "Installation"},
	}
	for _, tc := range cases {
		w := do(t, router, http.MethodGet, "/document?format="+tc.format, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%q: status = %d", tc.format, w.Code)
			continue
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tc.contentType) {
			t.Errorf("%q: Content-Type = %q", tc.format, ct)
		}
		if !strings.Contains(w.Body.String(), tc.contains) {
			t.Errorf("%q: body lacks %q", tc.format, tc.contains)
		}
	}

	w := do(t, router, http.MethodGet, "/document?format=pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("pdf = %d, want 400", w.Code)
	}
	// Preview never bumps.
	w = do(t, router, http.MethodGet, "/version", nil)
	if v := decode[VersionResponse](t, w).Version; v != "1.0.0" {
		t.Errorf("version after preview = %q", v)
	}
}

func uploadLogo(t *testing.T, router http.Handler, mimeType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="logo"`)
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogoUploadServeDelete(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadLogo(t, router, "image/png", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[LogoUploadResponse](t, w); got.MIMEType != "image/png" || got.Size != 13 {
		t.Errorf("upload response = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/logo", nil)
	if w.Code != http.StatusOK || w.Body.String() != "fake-png-data" {
		t.Fatalf("serve = %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}

	w = do(t, router, http.MethodDelete, "/logo", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/logo", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("serve after delete = %d, want 404", w.Code)
	}
}

func TestLogoRejected(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadLogo(t, router, "image/gif", []byte("GIF89a"))
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("gif = %d, want 415", w.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file = %d, want 400", rec.Code)
	}
}

func TestResetAndExample(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/example", nil)
	if got := decode[ProcedureResponse](t, w); got.Procedure.Reference != "PROC-IT-2024-001" {
		t.Errorf("reference = %q", got.Procedure.Reference)
	}
	w = do(t, router, http.MethodPost, "/reset", nil)
	got := decode[ProcedureResponse](t, w)
	if got.Procedure.Title != "" || len(got.Outline.Steps) != 1 {
		t.Errorf("after reset = %q with %d steps", got.Procedure.Title, len(got.Outline.Steps))
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/procedure", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed get = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/procedure", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/procedure", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvFull(t, true, "secret", blockingSSE)

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvFull(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
