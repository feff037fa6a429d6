package util

import (
	"os"
	"strings"
)

var (
	isDebug *bool
)

func IsDebug() bool {
	if isDebug == nil {
		debug := os.Getenv("PLASMAGYM_DEBUG")
		d := debug == "1" || strings.EqualFold(debug, "true")
		isDebug = &d
	}

	return *isDebug
}
