//go:build js && wasm

package main

import "github.com/learnup/learnup/internal/ui/wasm"

func main() {
	wasm.RunApp()
}
