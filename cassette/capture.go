package cassette

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// CaptureRequest builds the canonical form of an outgoing request. The
// request body is buffered in full and then restored in place, so the
// request remains dispatchable after capture.
func CaptureRequest(req *http.Request) (Request, error) {
	body, err := drainRequestBody(req)
	if err != nil {
		return Request{}, fmt.Errorf("cassette: read request body: %w", err)
	}

	return Request{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: cloneHeader(req.Header),
		Body:   NewBody(body),
	}, nil
}

// CaptureResponse builds the canonical form of a completed response. The
// response body is buffered in full and then restored in place, so the
// caller can still read it.
func CaptureResponse(resp *http.Response) (Response, error) {
	body, err := drainResponseBody(resp)
	if err != nil {
		return Response{}, fmt.Errorf("cassette: read response body: %w", err)
	}

	return Response{
		Status:  resp.StatusCode,
		Version: resp.Proto,
		Header:  cloneHeader(resp.Header),
		Body:    NewBody(body),
	}, nil
}

// HTTPResponse synthesizes an *http.Response from the stored record. The
// returned response is self-contained: its body is an in-memory reader over
// the recorded bytes.
func (r Response) HTTPResponse() *http.Response {
	body := r.Body.Bytes()

	resp := &http.Response{
		Status:        fmt.Sprintf("%d %s", r.Status, http.StatusText(r.Status)),
		StatusCode:    r.Status,
		Header:        http.Header(cloneHeader(r.Header)),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}

	if r.Version != "" {
		resp.Proto = r.Version
		if major, minor, ok := http.ParseHTTPVersion(r.Version); ok {
			resp.ProtoMajor = major
			resp.ProtoMinor = minor
		}
	}
	return resp
}

func drainRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func drainResponseBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
