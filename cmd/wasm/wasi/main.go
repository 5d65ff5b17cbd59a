//go:build wasip1

// Command gowindow-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "clause": <clause definition>, "data": [<item>, ...] }
//	stdout: { "windows": [{"start": 1, "end": 3, "items": [...]}, ...] }  on success
//	        { "error": "<message>", "code": "<code>" }                     on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gowindow.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"clause":{"kind":"tumbling","var":"w","start":{"at":"s"},"end":{"at":"e","when":"e - s == 1"}},"data":[1,2,3]}' | wasmtime gowindow.wasm
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sandrolain/gowindow"
	"github.com/sandrolain/gowindow/pkg/types"
)

type request struct {
	Clause *gowindow.ClauseDef `json:"clause"`
	Data   []interface{}       `json:"data"`
}

type response struct {
	Windows []gowindow.Result `json:"windows,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    types.ErrorCode   `json:"code,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	recs, err := gowindow.Windows(context.Background(), req.Clause, req.Data)
	if err != nil {
		writeResponse(response{Error: err.Error(), Code: types.CodeOf(err)}, 1)
	}

	windows := make([]gowindow.Result, len(recs))
	for i, rec := range recs {
		windows[i] = gowindow.NewResult(rec)
	}
	writeResponse(response{Windows: windows}, 0)
}
