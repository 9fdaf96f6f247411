package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/tradenest/intake-workflow-backend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Errorf("running command: %v", err)
		os.Exit(1)
	}
}
