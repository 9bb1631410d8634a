// Command cottontail is a minimal entry point demonstrating how a
// catalogue.Configuration is assembled and handed to catalogue.Open.
// Parsing that configuration from a file, serving the gRPC boundary
// named in spec.md §6, and any interactive client are out of scope.
package main

import (
	"flag"
	"log"

	"github.com/cottontaildb/cottontail/pkg/catalogue"
	"github.com/cottontaildb/cottontail/pkg/logging"
	"github.com/cottontaildb/cottontail/pkg/primitives"
)

func main() {
	root := flag.String("root", "./data", "catalogue root directory")
	port := flag.Int("port", 1865, "server port")
	flag.Parse()

	logging.InitDefault()

	config := catalogue.DefaultConfiguration(primitives.Filepath(*root))
	config.Server.Port = *port

	cat, err := catalogue.Open(config)
	if err != nil {
		log.Fatalf("cottontail: failed to open catalogue at %s: %v", *root, err)
	}
	defer cat.Close()

	logging.WithComponent("catalogue").Info("ready", "root", *root, "schemas", len(cat.ListSchemas()))
}
