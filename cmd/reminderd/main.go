package main

import "github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/services/engine/cli"

func main() {
	cli.Execute()
}
