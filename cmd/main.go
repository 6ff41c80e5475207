package main

import (
	cmd "github.com/PratikshaDPai/bato-downloader/cmd/bato"
)

func main() {
	cmd.Execute()
}
