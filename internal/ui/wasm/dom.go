//go:build js && wasm

package wasm

import "syscall/js"

type focusSnapshot struct {
	ID    string
	Start int
	End   int
}

func captureFocusSnapshot(doc js.Value) focusSnapshot {
	active := doc.Get("activeElement")
	if !active.Truthy() {
		return focusSnapshot{Start: -1, End: -1}
	}
	idValue := active.Get("id")
	if idValue.Type() != js.TypeString {
		return focusSnapshot{Start: -1, End: -1}
	}
	snap := focusSnapshot{ID: idValue.String(), Start: -1, End: -1}
	if start := active.Get("selectionStart"); start.Type() == js.TypeNumber {
		snap.Start = start.Int()
	}
	if end := active.Get("selectionEnd"); end.Type() == js.TypeNumber {
		snap.End = end.Int()
	}
	return snap
}

func restoreFocusSnapshot(doc js.Value, snap focusSnapshot) {
	if snap.ID == "" {
		return
	}
	target := doc.Call("getElementById", snap.ID)
	if !target.Truthy() || target.Get("disabled").Truthy() {
		return
	}
	target.Call("focus")
	if snap.Start >= 0 && snap.End >= 0 {
		if setter := target.Get("setSelectionRange"); setter.Type() == js.TypeFunction {
			target.Call("setSelectionRange", snap.Start, snap.End)
		}
	}
}

// handlerSet tracks bound callbacks so a re-render can release them.
type handlerSet struct {
	funcs []js.Func
}

func (h *handlerSet) add(node js.Value, event string, handler func(js.Value, []js.Value) any) {
	if !node.Truthy() {
		return
	}
	fn := js.FuncOf(handler)
	node.Call("addEventListener", event, fn)
	h.funcs = append(h.funcs, fn)
}

func (h *handlerSet) release() {
	for _, fn := range h.funcs {
		fn.Release()
	}
	h.funcs = h.funcs[:0]
}

func forEachNode(list js.Value, fn func(js.Value)) {
	if !list.Truthy() {
		return
	}
	length := list.Get("length").Int()
	for i := 0; i < length; i++ {
		fn(list.Index(i))
	}
}

// onNextTick runs fn from the browser event loop.
func onNextTick(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		cb.Release()
		return nil
	})
	js.Global().Call("setTimeout", cb, 0)
}

func consoleWarn(args ...any) {
	console := js.Global().Get("console")
	if console.Truthy() {
		console.Call("warn", args...)
	}
}
