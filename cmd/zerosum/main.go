package main

import (
	"os"

	"zerosum/pkg/logger"
)

func main() {
	a := newApp()
	defer a.close()
	if err := newRootCmd(a).Execute(); err != nil {
		logger.Errorf("%v", err)
		a.close()
		os.Exit(1)
	}
}
