package main

import (
	"log"
	"os"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

func main() {
	serverMode := len(os.Args) > 1 && os.Args[1] == "--server"
	app, err := NewApp(serverMode, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
