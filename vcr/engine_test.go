package vcr

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonwraymond/httptape/cassette"
	"github.com/jonwraymond/httptape/tape"
)

// roundTripperFunc adapts a function to http.RoundTripper for stub
// transports.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stubResponse(status int, header http.Header, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func stubTransport(status int, header http.Header, body string) roundTripperFunc {
	return func(*http.Request) (*http.Response, error) {
		return stubResponse(status, header, body), nil
	}
}

func replayCassette(t *testing.T, path string, ins []cassette.Interaction) {
	t.Helper()
	data, err := cassette.EncodeStream(ins)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func get(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// TestEngine_RecordThenReplay is the end-to-end scenario: record against a
// stub transport, then answer the identical request from the cassette.
func TestEngine_RecordThenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	reg := tape.NewRegistry()

	recorder, err := New(Record, path, WithRegistry(reg))
	if err != nil {
		t.Fatalf("New(Record): %v", err)
	}

	client := recorder.Client(stubTransport(200, http.Header{"X": {"v"}}, "hello"))
	resp := get(t, client, "https://example.com")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 || string(body) != "hello" {
		t.Fatalf("recorded call: status %d body %q", resp.StatusCode, body)
	}

	replayer, err := New(Replay, path, WithRegistry(reg))
	if err != nil {
		t.Fatalf("New(Replay): %v", err)
	}

	// The wrapped transport must never run in replay mode.
	tripped := false
	client = replayer.Client(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		tripped = true
		return nil, errors.New("network reached")
	}))

	resp = get(t, client, "https://example.com")
	if tripped {
		t.Error("replay invoked the wrapped transport")
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X"); got != "v" {
		t.Errorf("header X = %q, want v", got)
	}
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q, want hello", body)
	}
}

// TestEngine_ReplayMiss verifies an unmatched request yields a LookupError
// carrying the request, never a default response or a network call.
func TestEngine_ReplayMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	replayCassette(t, path, []cassette.Interaction{{
		Request: cassette.Request{
			Method: "GET",
			URL:    "https://example.com/recorded",
			Header: map[string][]string{},
			Body:   cassette.NewBody(nil),
		},
		Response: cassette.Response{Status: 200, Header: map[string][]string{}, Body: cassette.NewBody(nil)},
	}})

	engine, err := New(Replay, path, WithRegistry(tape.NewRegistry()))
	if err != nil {
		t.Fatal(err)
	}

	client := engine.Client(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		t.Error("network reached on miss")
		return nil, errors.New("unreachable")
	}))

	_, err = client.Get("https://example.com/not-recorded")
	if err == nil {
		t.Fatal("replay of unrecorded request succeeded")
	}
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("errors.Is(err, ErrNoMatch) = false, err = %v", err)
	}

	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("error = %v (%T), want *LookupError", err, err)
	}
	if lookupErr.Request.URL != "https://example.com/not-recorded" {
		t.Errorf("LookupError.Request.URL = %q", lookupErr.Request.URL)
	}
	if lookupErr.Cassette != path {
		t.Errorf("LookupError.Cassette = %q, want %q", lookupErr.Cassette, path)
	}
}

// TestEngine_StatelessMatching verifies lookup is a stateless scan: with
// recordings [A, B, A] and responses [R1, R2, R3], replaying A twice
// returns R1 both times.
func TestEngine_StatelessMatching(t *testing.T) {
	a := cassette.Request{
		Method: "GET",
		URL:    "https://example.com/a",
		Header: map[string][]string{},
		Body:   cassette.NewBody(nil),
	}
	b := cassette.Request{
		Method: "GET",
		URL:    "https://example.com/b",
		Header: map[string][]string{},
		Body:   cassette.NewBody(nil),
	}
	respWith := func(body string) cassette.Response {
		return cassette.Response{Status: 200, Header: map[string][]string{}, Body: cassette.NewBody([]byte(body))}
	}

	path := filepath.Join(t.TempDir(), "session.yml")
	replayCassette(t, path, []cassette.Interaction{
		{Request: a, Response: respWith("R1")},
		{Request: b, Response: respWith("R2")},
		{Request: a, Response: respWith("R3")},
	})

	engine, err := New(Replay, path, WithRegistry(tape.NewRegistry()))
	if err != nil {
		t.Fatal(err)
	}
	client := engine.Client(nil)

	for call := 0; call < 2; call++ {
		resp := get(t, client, "https://example.com/a")
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if string(body) != "R1" {
			t.Errorf("replay %d of A = %q, want R1", call, body)
		}
	}
}

// TestEngine_RedactionAffectsOnlyStorage verifies the caller sees the real
// response while the cassette holds the placeholder.
func TestEngine_RedactionAffectsOnlyStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	reg := tape.NewRegistry()

	engine, err := New(Record, path,
		WithRegistry(reg),
		WithResponseRedactor(HeaderReplacer{Name: "Set-Cookie", Placeholder: "(erased)"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	client := engine.Client(stubTransport(200, http.Header{"Set-Cookie": {"session=secret123"}}, "ok"))
	resp := get(t, client, "https://example.com")

	if got := resp.Header.Get("Set-Cookie"); got != "session=secret123" {
		t.Errorf("live response Set-Cookie = %q, want original", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret123") {
		t.Error("cassette contains the unredacted cookie")
	}
	if !strings.Contains(string(data), "(erased)") {
		t.Error("cassette does not contain the placeholder")
	}
}

// TestEngine_RequestRedactorNormalizesMatching verifies redaction applies
// before matching, so volatile request headers can be normalized on both
// sides.
func TestEngine_RequestRedactorNormalizesMatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	reg := tape.NewRegistry()
	redactor := HeaderReplacer{Name: "Session-Key", Placeholder: "(key)"}

	recorder, err := New(Record, path, WithRegistry(reg), WithRequestRedactor(redactor))
	if err != nil {
		t.Fatal(err)
	}
	client := recorder.Client(stubTransport(200, http.Header{}, "ok"))

	req, err := http.NewRequest("GET", "https://example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header["Session-Key"] = []string{"00112233445566778899AABBCCDDEEFF"}
	if _, err := client.Do(req); err != nil {
		t.Fatalf("record: %v", err)
	}

	replayer, err := New(Replay, path, WithRegistry(reg), WithRequestRedactor(redactor))
	if err != nil {
		t.Fatal(err)
	}
	client = replayer.Client(nil)

	// A different key must still match, both sides normalize to the
	// placeholder.
	req, err = http.NewRequest("GET", "https://example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header["Session-Key"] = []string{"FFEEDDCCBBAA99887766554433221100"}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

// TestEngine_RecordBodyStaysReadable verifies capture does not drain the
// request body the stub transport still needs.
func TestEngine_RecordBodyStaysReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	reg := tape.NewRegistry()

	var seen string
	engine, err := New(Record, path, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	client := engine.Client(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		seen = string(body)
		return stubResponse(200, http.Header{}, "ok"), nil
	}))

	if _, err := client.Post("https://example.com", "text/plain", strings.NewReader("payload")); err != nil {
		t.Fatal(err)
	}
	if seen != "payload" {
		t.Errorf("transport observed body %q, want payload", seen)
	}
}

// TestEngine_FailedCallAppendsNothing verifies a transport failure leaves
// the cassette untouched.
func TestEngine_FailedCallAppendsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	reg := tape.NewRegistry()

	engine, err := New(Record, path, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	client := engine.Client(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))

	if _, err := client.Get("https://example.com"); err == nil {
		t.Fatal("call through failing transport succeeded")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cassette exists after failed call: %v", err)
	}
}

// TestEngine_ConcurrentRecord verifies two engines recording to one file
// both land their pairs, replayable afterward.
func TestEngine_ConcurrentRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	reg := tape.NewRegistry()

	urls := []string{"https://example.com/one", "https://example.com/two"}
	done := make(chan error, len(urls))
	for _, url := range urls {
		url := url
		go func() {
			engine, err := New(Record, path, WithRegistry(reg))
			if err != nil {
				done <- err
				return
			}
			client := engine.Client(stubTransport(200, http.Header{}, url))
			_, err = client.Get(url)
			done <- err
		}()
	}
	for range urls {
		if err := <-done; err != nil {
			t.Fatalf("concurrent record: %v", err)
		}
	}

	replayer, err := New(Replay, path, WithRegistry(reg))
	if err != nil {
		t.Fatalf("New(Replay): %v", err)
	}
	client := replayer.Client(nil)
	for _, url := range urls {
		resp := get(t, client, url)
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if string(body) != url {
			t.Errorf("replay %s = %q", url, body)
		}
	}
}

// TestEngine_ConstructionFailsFast verifies replay construction surfaces
// file and parse errors before any request is made.
func TestEngine_ConstructionFailsFast(t *testing.T) {
	reg := tape.NewRegistry()

	if _, err := New(Replay, filepath.Join(t.TempDir(), "absent.yml"), WithRegistry(reg)); err == nil {
		t.Error("New(Replay) on missing cassette succeeded")
	} else {
		var fileErr *tape.FileError
		if !errors.As(err, &fileErr) {
			t.Errorf("error = %v (%T), want *tape.FileError", err, err)
		}
	}

	broken := filepath.Join(t.TempDir(), "broken.yml")
	if err := os.WriteFile(broken, []byte(": not yaml [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Replay, broken, WithRegistry(reg)); err == nil {
		t.Error("New(Replay) on malformed cassette succeeded")
	} else {
		var parseErr *cassette.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("error = %v (%T), want wrapped *cassette.ParseError", err, err)
		}
	}

	if _, err := New(Mode(42), filepath.Join(t.TempDir(), "x.yml"), WithRegistry(reg)); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("unknown mode error = %v", err)
	}
}
