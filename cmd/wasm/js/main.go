//go:build js && wasm

// Command gowindow-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gowindow` object with the following API:
//
//	gowindow.version()                         → string
//	gowindow.windows(clauseJSON, dataJSON)     → windowsJSON  (throws on error)
//	gowindow.compile(clauseJSON)               → { windows(dataJSON) → windowsJSON }  (throws on error)
//
// dataJSON is a JSON array of items. windowsJSON is an array of
// {"start", "end", "items", "bindings"} objects.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gowindow.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const gw = await load()
//	const clause = {kind: 'tumbling', var: 'w', start: {at: 's'}, end: {at: 'e', when: 'e - s == 1'}}
//	const out = gw.windows(JSON.stringify(clause), '[1, 2, 3]')
//	console.log(JSON.parse(out).map(w => w.items)) // [[1, 2], [3]]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gowindow"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/window"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func parseData(fn, dataJSON string) []interface{} {
	var data []interface{}
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		jsThrow(fmt.Sprintf("%s: invalid data JSON: %v", fn, err))
	}
	return data
}

func compileClause(fn, clauseJSON string) *window.Spec {
	def, err := gowindow.ParseClause([]byte(clauseJSON))
	if err != nil {
		jsThrow(fmt.Sprintf("%s: %v", fn, err))
	}
	spec, err := gowindow.Compile(def)
	if err != nil {
		jsThrow(fmt.Sprintf("%s: %v", fn, err))
	}
	return spec
}

func evalWindows(fn string, spec *window.Spec, data []interface{}) string {
	recs, err := spec.Evaluate(seq.FromSlice(data)).Collect(context.Background())
	if err != nil {
		jsThrow(fmt.Sprintf("%s: %v", fn, err))
	}
	results := make([]gowindow.Result, len(recs))
	for i, rec := range recs {
		results[i] = gowindow.NewResult(rec)
	}
	out, err := json.Marshal(results)
	if err != nil {
		jsThrow(fmt.Sprintf("%s: marshal result: %v", fn, err))
	}
	return string(out)
}

// jsWindows implements gowindow.windows(clauseJSON, dataJSON) → windowsJSON.
func jsWindows(_ js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		jsThrow("gowindow.windows requires 2 arguments: clause (JSON string) and data (JSON string)")
	}
	spec := compileClause("gowindow.windows", args[0].String())
	return evalWindows("gowindow.windows", spec, parseData("gowindow.windows", args[1].String()))
}

// jsCompile implements gowindow.compile(clauseJSON) → { windows(dataJSON) → windowsJSON }.
func jsCompile(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gowindow.compile requires 1 argument: clause (JSON string)")
	}
	spec := compileClause("gowindow.compile", args[0].String())

	windowsFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) interface{} {
		if len(innerArgs) < 1 {
			jsThrow("compiled.windows requires 1 argument: data (JSON string)")
		}
		return evalWindows("compiled.windows", spec, parseData("compiled.windows", innerArgs[0].String()))
	})

	return js.ValueOf(map[string]interface{}{"windows": windowsFn})
}

func main() {
	api := map[string]interface{}{
		"windows": js.FuncOf(jsWindows),
		"compile": js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return gowindow.Version()
		}),
	}
	js.Global().Set("gowindow", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}
