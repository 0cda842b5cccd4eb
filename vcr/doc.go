// Package vcr records and replays HTTP sessions to make client-side tests
// deterministic.
//
// An Engine is bound to a mode and a cassette file and installed into an
// http.Client as a RoundTripper wrapper. In Record mode every call goes out
// over the wrapped transport and the request/response pair is appended to
// the cassette; in Replay mode calls are answered from the cassette and the
// wrapped transport is never invoked.
//
//	engine, err := vcr.New(vcr.Replay, "testdata/session.yml")
//	if err != nil {
//		// a malformed cassette fails here, before any request
//	}
//	client := engine.Client(nil)
//
// Register the engine after any middleware that modifies the request, or
// those modifications will not be recorded and replayed. Redactors scrub
// volatile or sensitive values from the canonical record before it is
// persisted or matched, so recordings stay stable across runs:
//
//	engine, err := vcr.New(vcr.Record, "testdata/session.yml",
//		vcr.WithRequestRedactor(vcr.HeaderReplacer{Name: "Session-Key", Placeholder: "(key)"}),
//		vcr.WithResponseRedactor(vcr.HeaderReplacer{Name: "Set-Cookie", Placeholder: "(erased)"}),
//	)
//
// Redaction affects only the persisted copy; the caller always observes the
// real response in Record mode.
package vcr
