package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/attpc/daqdash/cmd/daqdash"
	"gitlab.com/greyxor/slogor"
)

func main() {
	daqdash.Execute(slogor.NewHandler(os.Stderr,
		slogor.SetLevel(slog.LevelDebug),
		slogor.SetTimeFormat(time.DateTime),
		slogor.ShowSource()))
}
