package main

import (
	"os"

	"github.com/memonote/memo-service/memoservice"
)

func main() {
	if err := memoservice.Run(); err != nil {
		os.Exit(1)
	}
}
