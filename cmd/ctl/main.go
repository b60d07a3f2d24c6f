package main

import (
	"context"
	"log"
	"os"

	"github.com/postbridge/postbridge/internal/buildinfo"
	"github.com/postbridge/postbridge/internal/client/cli"
	"github.com/postbridge/postbridge/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
