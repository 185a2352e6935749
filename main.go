package main

import (
	root "github.com/noirkit/noirkit/cmd"
)

func main() {
	root.Execute()
}
