// Command iotwatch-train runs the offline trainer: train-standardizer,
// infer-periodicity, and train-periodic-filter, the three idempotent entry
// points of spec.md §6.
package main

import (
	"os"

	"github.com/fenwicklabs/iotwatch/cmd/iotwatch-train/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
