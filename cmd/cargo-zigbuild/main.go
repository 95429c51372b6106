package main

import "github.com/goplus/zigbuild/cmd/cargo-zigbuild/internal"

func main() {
	internal.Execute()
}
