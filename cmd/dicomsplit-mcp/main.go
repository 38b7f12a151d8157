package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"dicomsplit/internal/mcpserver"
)

var BuildVersion = "dev"

func main() {
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *version {
		fmt.Println(BuildVersion)
		return
	}

	// stdout carries the protocol
	logger := log.New(os.Stderr, "dicomsplit-mcp: ", log.LstdFlags)
	h := mcpserver.NewHandler(logger)
	mcpServer := mcpserver.NewServer("dicomsplit", BuildVersion, h)

	logger.Printf("Serving %s over stdio", mcpserver.ToolName)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}
