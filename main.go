package main

import (
	"os"

	"github.com/zmre/mbr-markdown-browser-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
