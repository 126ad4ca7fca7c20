package main

import (
	"os"

	"github.com/openlens/openlens/lensservice"
)

func main() {
	if err := lensservice.Run(); err != nil {
		os.Exit(1)
	}
}
