// Package main runs the planner MCP server over stdio (for local assistant use).
// The same tools are mounted on the service at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/trainingplanner/internal"
	"github.com/2beens/trainingplanner/internal/config"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	// stdout carries the protocol
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	server, err := internal.NewServer(ctx, internal.NewServerParams{
		Config:           cfg,
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
	})
	if err != nil {
		log.Fatalf("new server: %v", err)
	}
	defer server.GracefulShutdown()

	if err := server.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Errorf("mcp stdio: %v", err)
	}
}
