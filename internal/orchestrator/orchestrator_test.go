package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/kimsangheu/stdpay-gateway/internal/models"
	"github.com/kimsangheu/stdpay-gateway/internal/sign"
)

const (
	testMid     = "INIpayTest"
	testSignKey = "SU5JTElURV9UUklQTEVERVNfS0VZU1RS"
	testMillis  = int64(1700000000000)
)

// stubRegistry maps the "fc" data center to a test server.
type stubRegistry struct {
	ep models.EndpointPair
}

func (s *stubRegistry) Resolve(idc string) (models.EndpointPair, bool) {
	if idc != "fc" {
		return models.EndpointPair{}, false
	}
	return s.ep, true
}

func (s *stubRegistry) IsKnownApprovalURL(idc, candidate string) bool {
	ep, ok := s.Resolve(idc)
	return ok && candidate == ep.ApprovalURL
}

func (s *stubRegistry) IsKnownNetCancelURL(idc, candidate string) bool {
	ep, ok := s.Resolve(idc)
	return ok && candidate == ep.NetCancelURL
}

// pgStub plays the PG's payAuth and netCancel endpoints.
type pgStub struct {
	mu            sync.Mutex
	approvalCalls int
	cancelCalls   int
	lastApproval  url.Values
	lastCancel    url.Values

	approvalBody  string
	cancelBody    string
	approvalDelay time.Duration

	server *httptest.Server
}

func newPGStub(t *testing.T) *pgStub {
	t.Helper()
	s := &pgStub{
		approvalBody: `{"resultCode":"0000","resultMsg":"OK","tid":"T1"}`,
		cancelBody:   `{"resultCode":"0000","resultMsg":"cancelled"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/payAuth", func(w http.ResponseWriter, r *http.Request) {
		if s.approvalDelay > 0 {
			time.Sleep(s.approvalDelay)
		}
		_ = r.ParseForm()
		s.mu.Lock()
		s.approvalCalls++
		s.lastApproval = r.PostForm
		body := s.approvalBody
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/api/netCancel", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.cancelCalls++
		s.lastCancel = r.PostForm
		body := s.cancelBody
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *pgStub) endpoints() models.EndpointPair {
	return models.EndpointPair{
		ApprovalURL:  s.server.URL + "/api/payAuth",
		NetCancelURL: s.server.URL + "/api/netCancel",
	}
}

func (s *pgStub) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approvalCalls, s.cancelCalls
}

func (s *pgStub) approvalForm() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastApproval
}

func (s *pgStub) cancelForm() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCancel
}

func newTestOrchestrator(stub *pgStub, timeout time.Duration) *Orchestrator {
	return New(Config{
		Mid:      testMid,
		SignKey:  testSignKey,
		Registry: &stubRegistry{ep: stub.endpoints()},
		Timeout:  timeout,
		Clock:    func() time.Time { return time.UnixMilli(testMillis) },
	})
}

func validCallback(ep models.EndpointPair) *models.CallbackPayload {
	return &models.CallbackPayload{
		ResultCode:   models.ResultSuccess,
		Mid:          testMid,
		AuthToken:    "tok-123",
		AuthURL:      ep.ApprovalURL,
		NetCancelURL: ep.NetCancelURL,
		IdcName:      "fc",
		OrderNumber:  "ORD-1",
		Price:        "1000",
		GoodName:     "Widget",
	}
}

func TestApproveSuccess(t *testing.T) {
	stub := newPGStub(t)
	o := newTestOrchestrator(stub, 0)

	result := o.Approve(context.Background(), validCallback(stub.endpoints()))

	if result.ResultCode != "0000" || result.Tid != "T1" {
		t.Errorf("Expected parsed success, got %+v", result)
	}

	approvals, cancels := stub.counts()
	if approvals != 1 {
		t.Errorf("Expected exactly one approval call, got %d", approvals)
	}
	if cancels != 0 {
		t.Errorf("Expected no compensation on success, got %d calls", cancels)
	}

	form := stub.approvalForm()
	timestamp := form.Get("timestamp")
	if form.Get("mid") != testMid || form.Get("authToken") != "tok-123" {
		t.Errorf("Approval form missing identity fields: %v", form)
	}
	if form.Get("charset") != "UTF-8" || form.Get("format") != "JSON" {
		t.Errorf("Approval form missing fixed fields: %v", form)
	}
	if timestamp != "1700000000000" {
		t.Errorf("Expected clock-derived timestamp, got %s", timestamp)
	}
	if form.Get("signature") != sign.AuthSignature("tok-123", timestamp) {
		t.Error("Approval signature not computed over (authToken, timestamp)")
	}
	if form.Get("verification") != sign.AuthVerification("tok-123", testSignKey, timestamp) {
		t.Error("Approval verification not computed over (authToken, signKey, timestamp)")
	}
}

func TestApprovePGReportedFailureIsParsed(t *testing.T) {
	stub := newPGStub(t)
	stub.approvalBody = `{"resultCode":"1175","resultMsg":"card limit exceeded"}`
	o := newTestOrchestrator(stub, 0)

	result := o.Approve(context.Background(), validCallback(stub.endpoints()))

	// The PG said no; that is a parsed outcome, not an ambiguous one.
	if result.ResultCode != "1175" || result.ResultMsg != "card limit exceeded" {
		t.Errorf("Expected PG verdict verbatim, got %+v", result)
	}
	if _, cancels := stub.counts(); cancels != 0 {
		t.Errorf("PG-reported failure must not trigger compensation, got %d calls", cancels)
	}
}

func TestApproveRejectsMismatchedAuthURL(t *testing.T) {
	stub := newPGStub(t)
	o := newTestOrchestrator(stub, 0)

	cb := validCallback(stub.endpoints())
	cb.AuthURL = "https://evil.example.com/api/payAuth"

	result := o.Approve(context.Background(), cb)

	if result.ResultCode != models.ResultFail || result.ResultMsg != "URL mismatch" {
		t.Errorf("Expected sentinel URL mismatch record, got %+v", result)
	}
	approvals, cancels := stub.counts()
	if approvals != 0 || cancels != 0 {
		t.Errorf("Expected zero network calls, got %d approvals and %d cancels", approvals, cancels)
	}
}

func TestApproveRejectsUnknownDataCenter(t *testing.T) {
	stub := newPGStub(t)
	o := newTestOrchestrator(stub, 0)

	cb := validCallback(stub.endpoints())
	cb.IdcName = "eu"

	result := o.Approve(context.Background(), cb)

	if result.ResultCode != models.ResultFail {
		t.Errorf("Expected sentinel failure, got %+v", result)
	}
	if approvals, _ := stub.counts(); approvals != 0 {
		t.Errorf("Unknown data center must not be dialed, got %d calls", approvals)
	}
}

func TestApproveUnparsableResponseTriggersCompensation(t *testing.T) {
	stub := newPGStub(t)
	stub.approvalBody = `<html>Internal Server Error</html>`
	o := newTestOrchestrator(stub, 0)

	result := o.Approve(context.Background(), validCallback(stub.endpoints()))

	if result.ResultCode != models.ResultFail {
		t.Errorf("Expected sentinel failure, got %+v", result)
	}
	approvals, cancels := stub.counts()
	if approvals != 1 || cancels != 1 {
		t.Errorf("Expected one approval and one compensation, got %d and %d", approvals, cancels)
	}
	if stub.cancelForm().Get("authToken") != "tok-123" {
		t.Errorf("Compensation must reuse the approval request fields: %v", stub.cancelForm())
	}
}

func TestApproveMissingResultCodeTriggersCompensation(t *testing.T) {
	stub := newPGStub(t)
	stub.approvalBody = `{"tid":"T1"}`
	o := newTestOrchestrator(stub, 0)

	result := o.Approve(context.Background(), validCallback(stub.endpoints()))

	if result.ResultCode != models.ResultFail {
		t.Errorf("Expected sentinel failure, got %+v", result)
	}
	if _, cancels := stub.counts(); cancels != 1 {
		t.Errorf("Absent resultCode must trigger exactly one compensation, got %d", cancels)
	}
}

func TestApproveTimeoutBehavesLikeParseFailure(t *testing.T) {
	stub := newPGStub(t)
	stub.approvalDelay = 300 * time.Millisecond
	o := newTestOrchestrator(stub, 100*time.Millisecond)

	result := o.Approve(context.Background(), validCallback(stub.endpoints()))

	if result.ResultCode != models.ResultFail {
		t.Errorf("Expected sentinel failure, got %+v", result)
	}
	if _, cancels := stub.counts(); cancels != 1 {
		t.Errorf("Timeout must trigger exactly one compensation, got %d", cancels)
	}
}

func TestCompensationSkippedOnNetCancelURLMismatch(t *testing.T) {
	stub := newPGStub(t)
	stub.approvalBody = `not json`
	o := newTestOrchestrator(stub, 0)

	cb := validCallback(stub.endpoints())
	cb.NetCancelURL = "https://evil.example.com/api/netCancel"

	result := o.Approve(context.Background(), cb)

	if result.ResultCode != models.ResultFail {
		t.Errorf("Expected sentinel failure, got %+v", result)
	}
	if _, cancels := stub.counts(); cancels != 0 {
		t.Errorf("Mismatched net cancel URL must never be dialed, got %d calls", cancels)
	}
}

func TestCompensationFailureStillReturnsSentinel(t *testing.T) {
	stub := newPGStub(t)
	stub.approvalBody = `not json`
	stub.cancelBody = `also not json`
	o := newTestOrchestrator(stub, 0)

	result := o.Approve(context.Background(), validCallback(stub.endpoints()))

	// compensated vs compensationFailed is operational detail only; the
	// buyer-facing record is the same sentinel either way.
	if result.ResultCode != models.ResultFail {
		t.Errorf("Expected sentinel failure, got %+v", result)
	}
	if _, cancels := stub.counts(); cancels != 1 {
		t.Errorf("Compensation is attempted at most once, got %d calls", cancels)
	}
}

func TestApproveSurvivesInboundCancellation(t *testing.T) {
	stub := newPGStub(t)
	o := newTestOrchestrator(stub, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := o.Approve(ctx, validCallback(stub.endpoints()))

	if result.ResultCode != "0000" {
		t.Errorf("A dropped inbound connection must not abort the approval, got %+v", result)
	}
	if approvals, _ := stub.counts(); approvals != 1 {
		t.Errorf("Expected the approval call to run to completion, got %d calls", approvals)
	}
}
