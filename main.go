package main

import "devgptstats/internal/app"

func main() {
	app.Main()
}
