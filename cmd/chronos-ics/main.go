package main

import (
	"os"

	"github.com/tartampluch/chronos-ics/internal/app"
)

func main() {
	os.Exit(app.Execute())
}
