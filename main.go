package main

import "schoolsync_backend/internals/cli"

func main() {
	cli.Execute()
}
