package main

import (
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/cmd/media-library/cmd"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/api"
)

func main() {
	// Ensure all API log file buffers are flushed and files closed on exit
	defer api.CloseAllLoggingTransports()

	cmd.Execute()
}
