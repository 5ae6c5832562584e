// Command iox2bench drives small publish-subscribe and event benchmarks
// against this module, one role per subcommand (publish, subscribe, notify,
// listen). Two of them run as distinct OS processes sharing --dir attach to
// the same service; notify and listen exchange events across processes, but
// publish and subscribe exchange samples only between ports of one process,
// because the per-connection sample buffers (internal/shm.Ring) are
// process-local.
package main

import (
	"fmt"
	"os"

	"iox2/cmd/iox2bench/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
